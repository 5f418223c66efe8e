// Package verification turns an upload into an authenticity verdict: a
// bounded score, anomalies, evidence sources and a status.
package verification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/yash-flix/VeriDoc-Ai/classifier"
	"github.com/yash-flix/VeriDoc-Ai/models"
)

const (
	AnomalyUnsupportedType = "Unsupported file type for verification"
	exceptionPrefix        = "Exception during verification: "

	maxDuplicateAnomalies = 3
)

var (
	DefaultDocumentModels = []string{
		"google/vit-base-patch16-224",
		"microsoft/resnet-50",
		"facebook/deit-base-distilled-patch16-224",
	}
	DefaultImageModels = []string{
		"google/vit-base-patch16-224",
		"microsoft/resnet-50",
	}
)

// Classifier ranks labels for raw file bytes. *classifier.Client satisfies it.
type Classifier interface {
	Classify(ctx context.Context, model string, data []byte) ([]classifier.Prediction, error)
}

type Config struct {
	Classifier     Classifier
	Fetcher        Fetcher
	Duplicates     DuplicateFinder // optional
	DocumentModels []string
	ImageModels    []string
	Logger         *zap.Logger
	Now            func() time.Time
}

// Verifier dispatches an upload to the document or image path.
type Verifier struct {
	cfg Config
}

func New(cfg Config) *Verifier {
	if len(cfg.DocumentModels) == 0 {
		cfg.DocumentModels = DefaultDocumentModels
	}
	if len(cfg.ImageModels) == 0 {
		cfg.ImageModels = DefaultImageModels
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Verifier{cfg: cfg}
}

// Verify never fails: unsupported categories, errors and panics all become
// a suspicious result with a null score. When the bytes decode as an image,
// u.PerceptualHash is set as a side effect.
func (v *Verifier) Verify(ctx context.Context, u *models.Upload) (res models.VerificationResult) {
	defer func() {
		if r := recover(); r != nil {
			v.cfg.Logger.Error("verification panicked", zap.Any("panic", r), zap.Stack("stack"))
			res = v.exceptionResult(fmt.Errorf("%v", r))
		}
	}()

	if u == nil {
		return v.exceptionResult(errors.New("no upload given"))
	}
	log := v.cfg.Logger.With(zap.String("upload_id", u.ID), zap.String("file_type", string(u.FileType)))

	var err error
	switch u.FileType {
	case models.FileTypeDocument:
		res, err = v.verifyBytes(ctx, u, v.cfg.DocumentModels, func(model string, preds []classifier.Prediction) models.VerificationResult {
			return ScoreDocument(model, preds, u.FileName)
		})
	case models.FileTypeImage:
		res, err = v.verifyBytes(ctx, u, v.cfg.ImageModels, ScoreImage)
	default:
		res = models.NewResult(nil, models.StatusSuspicious, []string{AnomalyUnsupportedType}, nil)
	}
	if err != nil {
		log.Warn("verification failed", zap.Error(err))
		return v.exceptionResult(err)
	}

	now := v.cfg.Now()
	res.VerifiedAt = &now
	log.Info("verification finished",
		zap.String("status", string(res.Status)),
		zap.Any("score", res.AuthenticityScore),
		zap.Strings("verified_against", res.VerifiedAgainst),
		zap.String("scoring_version", ScoringVersion))
	return res
}

type scoreFunc func(model string, preds []classifier.Prediction) models.VerificationResult

func (v *Verifier) verifyBytes(ctx context.Context, u *models.Upload, candidates []string, score scoreFunc) (models.VerificationResult, error) {
	log := v.cfg.Logger.With(zap.String("upload_id", u.ID))

	data, err := v.cfg.Fetcher.Fetch(ctx, u)
	if err != nil {
		if ctx.Err() != nil {
			return models.VerificationResult{}, ctx.Err()
		}
		log.Warn("download failed, using fallback analysis", zap.Error(err))
		return Fallback(FallbackInput{FileName: u.FileName, FileURL: u.FileURL}), nil
	}

	res, ok, err := v.classify(ctx, data, candidates, score)
	if err != nil {
		return models.VerificationResult{}, err
	}
	if !ok {
		log.Warn("all classifier models unavailable, using fallback analysis", zap.Strings("models", candidates))
		res = Fallback(FallbackInput{
			FileName: u.FileName,
			FileURL:  u.FileURL,
			Data:     data,
			Metadata: InspectMetadata(data),
		})
	}

	if anomaly := typeMismatch(u, data); anomaly != "" {
		res.Anomalies = append(res.Anomalies, anomaly)
	}
	res.Anomalies = append(res.Anomalies, v.duplicateAnomalies(ctx, u, data)...)
	return res, nil
}

// classify tries each candidate model in order and scores the first usable
// ranked list. ok is false when every model failed.
func (v *Verifier) classify(ctx context.Context, data []byte, candidates []string, score scoreFunc) (models.VerificationResult, bool, error) {
	if v.cfg.Classifier == nil {
		return models.VerificationResult{}, false, nil
	}
	for _, model := range candidates {
		preds, err := v.cfg.Classifier.Classify(ctx, model, data)
		if err != nil {
			if ctx.Err() != nil {
				return models.VerificationResult{}, false, ctx.Err()
			}
			v.cfg.Logger.Warn("model failed", zap.String("model", model), zap.Error(err))
			continue
		}
		if len(preds) == 0 {
			v.cfg.Logger.Warn("model returned no labels", zap.String("model", model))
			continue
		}
		return score(model, preds), true, nil
	}
	return models.VerificationResult{}, false, nil
}

func typeMismatch(u *models.Upload, data []byte) string {
	if u.FileType != models.FileTypeImage || len(data) == 0 {
		return ""
	}
	detected := u.ContentType
	if detected == "" {
		detected = mimetype.Detect(data).String()
	}
	if strings.HasPrefix(detected, "image/") {
		return ""
	}
	return fmt.Sprintf("Declared type %q does not match detected content type %q", string(u.FileType), detected)
}

// duplicateAnomalies hashes the bytes and reports close matches among
// earlier uploads. Non-image bytes and lookup failures yield nothing.
func (v *Verifier) duplicateAnomalies(ctx context.Context, u *models.Upload, data []byte) []string {
	hash, err := PerceptualHash(data)
	if err != nil {
		return nil
	}
	u.PerceptualHash = hash
	if v.cfg.Duplicates == nil {
		return nil
	}
	similar, err := v.cfg.Duplicates.FindSimilar(ctx, hash, u.ID, DuplicateThreshold)
	if err != nil {
		v.cfg.Logger.Warn("duplicate lookup failed", zap.String("upload_id", u.ID), zap.Error(err))
		return nil
	}
	var out []string
	for i, s := range similar {
		if i == maxDuplicateAnomalies {
			break
		}
		out = append(out, fmt.Sprintf("Visually near-identical to existing upload %s (hash distance %d)", s.ID, s.Distance))
	}
	return out
}

func (v *Verifier) exceptionResult(err error) models.VerificationResult {
	res := models.NewResult(nil, models.StatusSuspicious, []string{exceptionPrefix + err.Error()}, nil)
	now := v.cfg.Now()
	res.VerifiedAt = &now
	return res
}
