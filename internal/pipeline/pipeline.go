package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/verocta/spendscore/internal/domain"
	"github.com/verocta/spendscore/internal/score"
	"github.com/verocta/spendscore/internal/vendor"
)

// Pipeline is the single entry point collaborators invoke after receiving an
// uploaded file. It is stateless across batches; the registry and engine it
// holds are immutable shared configuration.
type Pipeline struct {
	registry  *vendor.Registry
	validator *Validator
	engine    *score.Engine
	log       zerolog.Logger
}

// New wires the pipeline from its immutable collaborators.
func New(registry *vendor.Registry, validation ValidationConfig, engine *score.Engine, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		registry:  registry,
		validator: NewValidator(validation),
		engine:    engine,
		log:       log,
	}
}

// IngestResult is the complete outcome of one pipeline run.
type IngestResult struct {
	// FileID is the content-derived batch identifier.
	FileID string `json:"file_id"`
	// Vendor is the detected vendor profile tag.
	Vendor string `json:"vendor"`
	// CleanRows is the number of transactions that survived validation.
	CleanRows int `json:"clean_rows"`
	// Score is the aggregated SpendScore for the clean batch.
	Score *score.Result `json:"score"`
	// Rejections is the per-row rejection report, in file order.
	Rejections *domain.RejectionReport `json:"rejections"`
}

// Ingest runs the full pipeline on raw file bytes:
//
//  1. Decode the table (CSV or XLSX).
//  2. Detect the vendor from the header signature.
//  3. Normalize rows into candidate transactions.
//  4. Validate candidates into a clean batch plus rejection report.
//  5. Score the clean batch.
//
// Row-level problems never fail the batch; only an unrecognized format,
// an undecodable file, or zero parseable rows return an error. The caller
// always gets either a complete scored result with its rejection report, or
// a single fatal error.
func (p *Pipeline) Ingest(ctx context.Context, data []byte, opts Options) (*IngestResult, error) {
	fileID := deriveFileID(data)
	log := p.log.With().Str("file_id", fileID).Str("filename", opts.Filename).Logger()

	header, records, err := ReadTable(opts.Filename, data)
	if err != nil {
		return nil, fmt.Errorf("Ingest: %w", err)
	}

	profile, err := p.registry.Detect(header)
	if err != nil {
		log.Warn().Strs("headers", header).Msg("No vendor signature matched")
		return nil, fmt.Errorf("Ingest: %w", err)
	}
	log.Debug().Str("vendor", profile.Tag).Int("rows", len(records)).Msg("Vendor detected")

	report := &domain.RejectionReport{FileID: fileID}
	candidates := NewNormalizer(profile).Normalize(fileID, records, report)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("Ingest: %w", ErrEmptyBatch)
	}

	refTime := opts.ReferenceTime
	if refTime.IsZero() {
		refTime = time.Now().UTC()
	}

	clean := p.validator.Validate(candidates, opts.ExpectedCurrency, refTime, report)

	// Normalizer and validator entries interleave; audit trails assume
	// original file order.
	sort.SliceStable(report.Rejections, func(i, j int) bool {
		return report.Rejections[i].RowIndex < report.Rejections[j].RowIndex
	})

	for _, rej := range report.Rejections {
		log.Debug().Int("row", rej.RowIndex).Str("reason", string(rej.Reason)).Msg("Row rejected")
	}

	batch := &domain.Batch{
		FileID:       fileID,
		SourceVendor: profile.Tag,
		Transactions: clean,
	}

	result := p.engine.Score(batch, refTime)

	log.Info().
		Str("vendor", profile.Tag).
		Int("clean_rows", len(clean)).
		Int("rejected_rows", report.Len()).
		Int("spend_score", result.Score).
		Str("tier", string(result.Tier)).
		Bool("low_confidence", result.LowConfidence).
		Msg("Batch scored")

	return &IngestResult{
		FileID:     fileID,
		Vendor:     profile.Tag,
		CleanRows:  len(clean),
		Score:      result,
		Rejections: report,
	}, nil
}

// deriveFileID derives the batch file id from the content itself, so
// byte-identical input always produces the same transaction ids.
func deriveFileID(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:12]
}
