package promptdb

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Pipeline is an agent pipeline with a declared scope
type Pipeline struct {
	ID           string      `gorm:"primaryKey"`
	Name         string      `gorm:"uniqueIndex;not null"`
	Description  string      `gorm:"not null"`
	AllowedScope string      `gorm:"not null"`
	CreatedAt    time.Time   `gorm:"not null"`
	Guardrails   []Guardrail `gorm:"foreignKey:PipelineID"`
}

// Guardrail is one output check applied by a pipeline
type Guardrail struct {
	ID          string    `gorm:"primaryKey"`
	PipelineID  string    `gorm:"not null;index"`
	Name        string    `gorm:"not null"`
	Description string    `gorm:"not null"`
	CheckPrompt string    `gorm:"type:text;not null"`
	Enabled     bool      `gorm:"not null;default:true"`
	CreatedAt   time.Time `gorm:"not null"`
}

// CodeExecutionPipeline is the name of the seeded pipeline
const CodeExecutionPipeline = "code-execution"

// Guardrails is the guardrail catalog
type Guardrails struct {
	db *gorm.DB
}

// OpenGuardrails opens or creates the guardrail catalog at path
func OpenGuardrails(path string) (*Guardrails, error) {
	db, err := open(path, &Pipeline{}, &Guardrail{})
	if err != nil {
		return nil, err
	}
	return &Guardrails{db: db}, nil
}

// Close releases the database
func (g *Guardrails) Close() error {
	return closeDB(g.db)
}

func codeExecutionSeed(now time.Time) Pipeline {
	const pipelineID = "pipeline-code-exec-001"
	guard := func(id, name, description, check string) Guardrail {
		return Guardrail{
			ID:          id,
			PipelineID:  pipelineID,
			Name:        name,
			Description: description,
			CheckPrompt: check,
			Enabled:     true,
			CreatedAt:   now,
		}
	}

	return Pipeline{
		ID:           pipelineID,
		Name:         CodeExecutionPipeline,
		Description:  "Pipeline for generating and executing Python code based on user requests",
		AllowedScope: "Mathematical calculations, data processing, algorithms, string manipulation, and general programming tasks",
		CreatedAt:    now,
		Guardrails: []Guardrail{
			guard("guard-001", "no-offensive-content",
				"Block offensive, hateful, or inappropriate language",
				"Check if the output contains offensive language, slurs, hate speech, or inappropriate content"),
			guard("guard-002", "no-harmful-instructions",
				"Block instructions for harmful activities",
				"Check if the output provides instructions for hacking, malware, weapons, or other harmful activities"),
			guard("guard-003", "scope-compliance",
				"Ensure output stays within allowed scope",
				"Check if the output is related to programming, code execution, or computational tasks. "+
					"Flag if it discusses unrelated topics like medical advice, legal advice, or personal opinions"),
		},
	}
}

// Seed inserts the code-execution pipeline and its guardrails. It reports
// false without changes when the pipeline already exists.
func (g *Guardrails) Seed() (bool, error) {
	var cnt int64
	if err := g.db.Model(&Pipeline{}).Where("name = ?", CodeExecutionPipeline).Count(&cnt).Error; err != nil {
		return false, fmt.Errorf("failed to look up pipeline: %w", err)
	}
	if cnt > 0 {
		return false, nil
	}

	pipeline := codeExecutionSeed(time.Now().UTC())
	err := g.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&pipeline).Error
	})
	if err != nil {
		return false, fmt.Errorf("failed to seed pipeline: %w", err)
	}
	return true, nil
}

// Pipelines returns every pipeline with its guardrails
func (g *Guardrails) Pipelines() ([]Pipeline, error) {
	var pipelines []Pipeline
	err := g.db.Preload("Guardrails", func(db *gorm.DB) *gorm.DB {
		return db.Order("id")
	}).Order("name").Find(&pipelines).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pipelines: %w", err)
	}
	return pipelines, nil
}
