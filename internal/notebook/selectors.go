// Package notebook knows the markup of the reader notebook: which selectors
// locate the sign-in controls, the library items and their annotations, and
// how to turn rendered markup into library entities.
package notebook

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Selectors is the selector profile for the notebook and its sign-in flow.
// Candidate lists are ordered; the first selector that matches wins.
type Selectors struct {
	IdentifierFields []string `yaml:"identifier_fields"`
	ContinueControls []string `yaml:"continue_controls"`
	SecretFields     []string `yaml:"secret_fields"`
	SubmitControls   []string `yaml:"submit_controls"`

	LibraryItem     string `yaml:"library_item"`
	SearchableText  string `yaml:"searchable_text"` // first match is the title, second the author
	CoverImage      string `yaml:"cover_image"`
	ItemIDAttribute string `yaml:"item_id_attribute"`

	Annotation         string `yaml:"annotation"`
	AnnotationText     string `yaml:"annotation_text"`
	AnnotationLocation string `yaml:"annotation_location"`
	AnnotationNote     string `yaml:"annotation_note"`
}

// DefaultSelectors returns the profile matching the current notebook markup.
func DefaultSelectors() Selectors {
	return Selectors{
		IdentifierFields: []string{
			`input[type="email"]`,
			`#ap_email`,
			`input[name="email"]`,
			`input[autocomplete="username"]`,
			`input[autocomplete="email"]`,
			`#email`,
		},
		ContinueControls: []string{`#continue`, `input[type="submit"]`},
		SecretFields:     []string{`input[type="password"]`, `#ap_password`},
		SubmitControls:   []string{`#signInSubmit`, `input[type="submit"]`},

		LibraryItem:     ".kp-notebook-library-each-book",
		SearchableText:  ".kp-notebook-searchable",
		CoverImage:      "img",
		ItemIDAttribute: "id",

		Annotation:         ".kp-notebook-highlight",
		AnnotationText:     ".kp-notebook-highlight-text",
		AnnotationLocation: ".kp-notebook-metadata",
		AnnotationNote:     ".kp-notebook-note-text",
	}
}

// LoadSelectors reads a YAML profile and overlays it on the defaults.
// Keys missing from the file keep their default value.
func LoadSelectors(path string) (Selectors, error) {
	sel := DefaultSelectors()
	if path == "" {
		return sel, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return sel, fmt.Errorf("read selector profile: %w", err)
	}

	var override Selectors
	if err := yaml.Unmarshal(data, &override); err != nil {
		return sel, fmt.Errorf("parse selector profile %s: %w", path, err)
	}

	sel.merge(override)
	return sel, sel.Validate()
}

func (s *Selectors) merge(o Selectors) {
	mergeList(&s.IdentifierFields, o.IdentifierFields)
	mergeList(&s.ContinueControls, o.ContinueControls)
	mergeList(&s.SecretFields, o.SecretFields)
	mergeList(&s.SubmitControls, o.SubmitControls)
	mergeString(&s.LibraryItem, o.LibraryItem)
	mergeString(&s.SearchableText, o.SearchableText)
	mergeString(&s.CoverImage, o.CoverImage)
	mergeString(&s.ItemIDAttribute, o.ItemIDAttribute)
	mergeString(&s.Annotation, o.Annotation)
	mergeString(&s.AnnotationText, o.AnnotationText)
	mergeString(&s.AnnotationLocation, o.AnnotationLocation)
	mergeString(&s.AnnotationNote, o.AnnotationNote)
}

func mergeList(dst *[]string, src []string) {
	if len(src) > 0 {
		*dst = src
	}
}

func mergeString(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}

// Validate reports selectors the pipeline cannot run without.
func (s Selectors) Validate() error {
	var errs []error
	if len(s.IdentifierFields) == 0 {
		errs = append(errs, errors.New("identifier_fields is empty"))
	}
	if len(s.SecretFields) == 0 {
		errs = append(errs, errors.New("secret_fields is empty"))
	}
	if s.LibraryItem == "" {
		errs = append(errs, errors.New("library_item is empty"))
	}
	if s.SearchableText == "" {
		errs = append(errs, errors.New("searchable_text is empty"))
	}
	if s.Annotation == "" {
		errs = append(errs, errors.New("annotation is empty"))
	}
	return errors.Join(errs...)
}
