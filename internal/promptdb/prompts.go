package promptdb

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Prompt is a named prompt with any number of versions
type Prompt struct {
	ID          string          `gorm:"primaryKey"`
	Name        string          `gorm:"uniqueIndex;not null"`
	Description string          `gorm:"not null"`
	CreatedAt   time.Time       `gorm:"not null"`
	Versions    []PromptVersion `gorm:"foreignKey:PromptID"`
}

// PromptVersion is one revision of a prompt's content
type PromptVersion struct {
	ID        string    `gorm:"primaryKey"`
	PromptID  string    `gorm:"not null;uniqueIndex:idx_prompt_version,priority:1;index:idx_versions_enabled,priority:1"`
	Version   string    `gorm:"not null;uniqueIndex:idx_prompt_version,priority:2"`
	Content   string    `gorm:"type:text;not null"`
	Enabled   bool      `gorm:"not null;default:true;index:idx_versions_enabled,priority:2"`
	CreatedAt time.Time `gorm:"not null"`
}

// PromptSummary is a prompt with its version counts
type PromptSummary struct {
	Prompt
	EnabledVersions int
	TotalVersions   int
}

// VersionDetail is a version together with the name of its prompt
type VersionDetail struct {
	PromptVersion
	PromptName string
}

// Prompts is the prompt catalog
type Prompts struct {
	db *gorm.DB
}

// OpenPrompts opens or creates the prompt catalog at path
func OpenPrompts(path string) (*Prompts, error) {
	db, err := open(path, &Prompt{}, &PromptVersion{})
	if err != nil {
		return nil, err
	}
	return &Prompts{db: db}, nil
}

// Close releases the database
func (p *Prompts) Close() error {
	return closeDB(p.db)
}

// AddPrompt creates a prompt
func (p *Prompts) AddPrompt(name, description string) (*Prompt, error) {
	var cnt int64
	if err := p.db.Model(&Prompt{}).Where("name = ?", name).Count(&cnt).Error; err != nil {
		return nil, fmt.Errorf("failed to look up prompt: %w", err)
	}
	if cnt > 0 {
		return nil, fmt.Errorf("%w: %s", ErrPromptExists, name)
	}

	prompt := &Prompt{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
	if err := p.db.Create(prompt).Error; err != nil {
		return nil, fmt.Errorf("failed to create prompt: %w", err)
	}
	return prompt, nil
}

func (p *Prompts) promptByName(name string) (*Prompt, error) {
	var cnt int64
	if err := p.db.Model(&Prompt{}).Where("name = ?", name).Count(&cnt).Error; err != nil {
		return nil, fmt.Errorf("failed to look up prompt: %w", err)
	}
	if cnt == 0 {
		return nil, fmt.Errorf("%w: %s", ErrPromptNotFound, name)
	}

	var prompt Prompt
	if err := p.db.Where("name = ?", name).First(&prompt).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch prompt: %w", err)
	}
	return &prompt, nil
}

// AddVersion adds an enabled version to the named prompt
func (p *Prompts) AddVersion(promptName, version, content string) (*PromptVersion, error) {
	prompt, err := p.promptByName(promptName)
	if err != nil {
		return nil, err
	}

	var cnt int64
	if err := p.db.Model(&PromptVersion{}).Where("prompt_id = ? AND version = ?", prompt.ID, version).Count(&cnt).Error; err != nil {
		return nil, fmt.Errorf("failed to look up version: %w", err)
	}
	if cnt > 0 {
		return nil, fmt.Errorf("%w: %s for prompt %s", ErrVersionExists, version, promptName)
	}

	v := &PromptVersion{
		ID:        uuid.NewString(),
		PromptID:  prompt.ID,
		Version:   version,
		Content:   content,
		Enabled:   true,
		CreatedAt: time.Now().UTC(),
	}
	if err := p.db.Create(v).Error; err != nil {
		return nil, fmt.Errorf("failed to create version: %w", err)
	}
	return v, nil
}

// SetEnabled enables or disables a version
func (p *Prompts) SetEnabled(versionID string, enabled bool) error {
	res := p.db.Model(&PromptVersion{}).Where("id = ?", versionID).Update("enabled", enabled)
	if res.Error != nil {
		return fmt.Errorf("failed to update version: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrVersionNotFound, versionID)
	}
	return nil
}

// ListPrompts returns every prompt ordered by name
func (p *Prompts) ListPrompts() ([]PromptSummary, error) {
	var prompts []Prompt
	if err := p.db.Preload("Versions").Order("name").Find(&prompts).Error; err != nil {
		return nil, fmt.Errorf("failed to list prompts: %w", err)
	}

	summaries := make([]PromptSummary, 0, len(prompts))
	for _, prompt := range prompts {
		s := PromptSummary{Prompt: prompt, TotalVersions: len(prompt.Versions)}
		for _, v := range prompt.Versions {
			if v.Enabled {
				s.EnabledVersions++
			}
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}

// ListVersions returns the versions of a prompt, newest first
func (p *Prompts) ListVersions(promptName string) ([]PromptVersion, error) {
	prompt, err := p.promptByName(promptName)
	if err != nil {
		return nil, err
	}

	var versions []PromptVersion
	if err := p.db.Where("prompt_id = ?", prompt.ID).Order("created_at DESC").Find(&versions).Error; err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}
	return versions, nil
}

// ShowVersion returns one version with its prompt name
func (p *Prompts) ShowVersion(versionID string) (*VersionDetail, error) {
	var cnt int64
	if err := p.db.Model(&PromptVersion{}).Where("id = ?", versionID).Count(&cnt).Error; err != nil {
		return nil, fmt.Errorf("failed to look up version: %w", err)
	}
	if cnt == 0 {
		return nil, fmt.Errorf("%w: %s", ErrVersionNotFound, versionID)
	}

	var v PromptVersion
	if err := p.db.Where("id = ?", versionID).First(&v).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch version: %w", err)
	}
	var prompt Prompt
	if err := p.db.Where("id = ?", v.PromptID).First(&prompt).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch prompt: %w", err)
	}
	return &VersionDetail{PromptVersion: v, PromptName: prompt.Name}, nil
}
