package cli

import (
	"context"
	"fmt"
	"log"
	"os"

	"exam-bot/internal/config"
	"exam-bot/internal/domain"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewImportCmd bulk-appends questions from a YAML file.
func NewImportCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Append questions from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), *configPath, args[0])
		},
	}
}

// importFile is the YAML layout accepted by the import command:
//
//	- subject: ingliz_tili
//	  questions:
//	    - type: multiple_choice
//	      prompt: "Apple?"
//	      options: [Olma, Nok]
//	      correct_index: 0
type importFile []importSubject

type importSubject struct {
	Subject   string           `yaml:"subject"`
	Questions []importQuestion `yaml:"questions"`
}

type importQuestion struct {
	Type         string   `yaml:"type"`
	Prompt       string   `yaml:"prompt"`
	Options      []string `yaml:"options"`
	CorrectIndex int      `yaml:"correct_index"`
	CorrectText  string   `yaml:"correct_text"`
	MediaRef     string   `yaml:"media_ref"`
}

// questionAppender is the slice of the store the importer writes through.
type questionAppender interface {
	AppendQuestion(ctx context.Context, subject string, q domain.Question) (int, error)
}

func runImport(ctx context.Context, configPath, path string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	subjects, err := parseImport(data)
	if err != nil {
		return err
	}

	st, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	n, err := importQuestions(ctx, st.store, subjects)
	if err != nil {
		return err
	}
	log.Printf("imported %d questions from %s", n, path)
	return nil
}

// parseImport validates the whole file before anything is written.
func parseImport(data []byte) ([]importSubject, error) {
	var file importFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse import file: %w", err)
	}
	for _, s := range file {
		if s.Subject == "" {
			return nil, fmt.Errorf("import entry without subject")
		}
		for i, q := range s.Questions {
			if _, err := q.toDomain(); err != nil {
				return nil, fmt.Errorf("%s question %d: %w", s.Subject, i, err)
			}
		}
	}
	return file, nil
}

func importQuestions(ctx context.Context, repo questionAppender, subjects []importSubject) (int, error) {
	var n int
	for _, s := range subjects {
		for _, q := range s.Questions {
			question, err := q.toDomain()
			if err != nil {
				return n, err
			}
			if _, err := repo.AppendQuestion(ctx, s.Subject, question); err != nil {
				return n, fmt.Errorf("append to %s: %w", s.Subject, err)
			}
			n++
		}
	}
	return n, nil
}

func (q importQuestion) toDomain() (domain.Question, error) {
	qt, err := domain.ParseQuestionType(q.Type)
	if err != nil {
		return nil, err
	}
	if q.Prompt == "" {
		return nil, fmt.Errorf("%w: empty prompt", domain.ErrInvalidQuestion)
	}
	if !qt.HasChoices() {
		if q.CorrectText == "" {
			return nil, fmt.Errorf("%w: text question without correct_text", domain.ErrInvalidQuestion)
		}
		return domain.TextInput{Prompt: q.Prompt, CorrectText: q.CorrectText}, nil
	}
	if len(q.Options) == 0 {
		return nil, domain.ErrEmptyOptions
	}
	return domain.NewChoiceQuestion(qt, q.Prompt, q.Options, q.CorrectIndex, q.MediaRef)
}
