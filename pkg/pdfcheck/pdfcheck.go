// Package pdfcheck validates uploaded PDF content before it is stored.
package pdfcheck

import (
	"bytes"
	"io"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/sirupsen/logrus"

	"github.com/vakya-app/vakya/pkg/utils"
)

var pdfMagic = []byte("%PDF-")

// Info describes a PDF that passed validation.
type Info struct {
	PageCount int
	SizeBytes int64
}

// Checker validates PDF uploads. It rejects anything that does not carry
// the PDF magic bytes, then runs pdfcpu's structural validation.
type Checker struct {
	config *model.Configuration
	log    *logrus.Entry
}

func NewChecker(logger *logrus.Logger) *Checker {
	config := model.NewDefaultConfiguration()
	config.ValidationMode = model.ValidationRelaxed
	return &Checker{
		config: config,
		log:    logger.WithField("component", "pdfcheck"),
	}
}

// Check validates the PDF held in rs. The reader is rewound to the start
// before returning so callers can stream the same reader into storage.
func (c *Checker) Check(rs io.ReadSeeker) (*Info, error) {
	header := make([]byte, len(pdfMagic))
	if _, err := io.ReadFull(rs, header); err != nil {
		return nil, utils.WrapErrorf(utils.ErrInvalidPDF, "reading header: %v", err)
	}
	if !bytes.Equal(header, pdfMagic) {
		return nil, utils.WrapErrorf(utils.ErrInvalidPDF, "missing %%PDF- signature")
	}

	size, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, utils.WrapErrorf(utils.ErrInvalidPDF, "sizing upload: %v", err)
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, utils.WrapErrorf(utils.ErrInvalidPDF, "rewinding upload: %v", err)
	}

	if err := pdfapi.Validate(rs, c.config); err != nil {
		c.log.WithError(err).Debug("PDF failed structural validation")
		return nil, utils.WrapErrorf(utils.ErrInvalidPDF, "structural validation: %v", err)
	}

	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, utils.WrapErrorf(utils.ErrInvalidPDF, "rewinding upload: %v", err)
	}
	pages, err := pdfapi.PageCount(rs, c.config)
	if err != nil {
		return nil, utils.WrapErrorf(utils.ErrInvalidPDF, "counting pages: %v", err)
	}

	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, utils.WrapErrorf(utils.ErrInvalidPDF, "rewinding upload: %v", err)
	}
	return &Info{PageCount: pages, SizeBytes: size}, nil
}
