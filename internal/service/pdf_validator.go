package service

import (
	"bytes"
	"context"

	"pdf-reader/internal/domain"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// StructureValidator performs a structural check of a payload before it reaches the renderer.
type StructureValidator interface {
	Validate(ctx context.Context, payload []byte) error
}

// PDFCPUValidator validates PDF structure with pdfcpu in relaxed mode.
type PDFCPUValidator struct {
	logger domain.Logger
}

// NewPDFCPUValidator creates a validator. pdfcpu's on-disk config directory is disabled.
func NewPDFCPUValidator(logger domain.Logger) *PDFCPUValidator {
	model.ConfigPath = "disable"
	return &PDFCPUValidator{logger: logger}
}

// Validate returns pdfcpu's error for a structurally broken file.
func (v *PDFCPUValidator) Validate(ctx context.Context, payload []byte) error {
	// pdfcpu mutates the configuration while validating, so each call gets its own.
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	_, err := runEngine(ctx, func() (struct{}, error) {
		return struct{}{}, api.Validate(bytes.NewReader(payload), conf)
	}, nil)
	if err != nil {
		v.logger.Warn("PDF failed structural validation", "error", err, "size", len(payload))
	}
	return err
}
