package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strconv"
	"time"

	"github.com/catalogrecon/backend/internal/application/analysis"
	"github.com/catalogrecon/backend/internal/infrastructure/export"
	"go.uber.org/zap"
)

const csvContentType = "text/csv; charset=utf-8"

// ArchivedReport locates the uploaded files of one analysis
type ArchivedReport struct {
	ReportKey string
	ReportURL string
	OrderKey  string
	OrderURL  string
	ExpiresAt time.Time
}

// ReportArchiver renders a finished analysis to CSV and uploads it
type ReportArchiver struct {
	store     ObjectStore
	keyPrefix string
	expiry    time.Duration
	logger    *zap.Logger
}

// ArchiverOption configures a ReportArchiver
type ArchiverOption func(*ReportArchiver)

// WithArchiveLogger sets the archiver logger
func WithArchiveLogger(logger *zap.Logger) ArchiverOption {
	return func(a *ReportArchiver) {
		a.logger = logger
	}
}

// WithURLExpiry sets how long the returned download links stay valid
func WithURLExpiry(d time.Duration) ArchiverOption {
	return func(a *ReportArchiver) {
		a.expiry = d
	}
}

// NewReportArchiver creates an archiver writing under keyPrefix
func NewReportArchiver(store ObjectStore, keyPrefix string, opts ...ArchiverOption) *ReportArchiver {
	a := &ReportArchiver{
		store:     store,
		keyPrefix: keyPrefix,
		expiry:    24 * time.Hour,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Keys returns the object keys of a snapshot: prefix/yyyy/mm/dd/<id>/
func (a *ReportArchiver) Keys(snap *analysis.Snapshot) (report, order string) {
	created := snap.CreatedAt.UTC()
	dir := path.Join(a.keyPrefix, created.Format("2006/01/02"), snap.Result.ID.String())
	return path.Join(dir, "report.csv"), path.Join(dir, "order.csv")
}

// Archive uploads the report and, when the snapshot has one, the order
func (a *ReportArchiver) Archive(ctx context.Context, snap *analysis.Snapshot) (*ArchivedReport, error) {
	if snap == nil || snap.Result == nil {
		return nil, errors.New("snapshot has no result")
	}
	res := snap.Result
	reportKey, orderKey := a.Keys(snap)

	meta := map[string]string{
		"analysis-id": res.ID.String(),
		"records":     strconv.Itoa(len(res.Records)),
		"created-at":  snap.CreatedAt.UTC().Format(time.RFC3339),
	}

	var buf bytes.Buffer
	if err := export.NewCSVWriter(&buf).WriteRecords(ctx, res.Records, res.ExtraColumns, res.Annotations); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	out := &ArchivedReport{ReportKey: reportKey}
	var err error
	out.ReportURL, out.ExpiresAt, err = a.upload(ctx, Object{
		Key:      reportKey,
		Data:     buf.Bytes(),
		Filename: "report-" + res.ID.String() + ".csv",
		Metadata: meta,
	})
	if err != nil {
		return nil, err
	}

	if snap.Order != nil {
		buf.Reset()
		if err := export.NewCSVWriter(&buf).WriteOrder(ctx, snap.Order); err != nil {
			return nil, fmt.Errorf("render order: %w", err)
		}
		out.OrderKey = orderKey
		out.OrderURL, _, err = a.upload(ctx, Object{
			Key:      orderKey,
			Data:     buf.Bytes(),
			Filename: "order-" + res.ID.String() + ".csv",
			Metadata: meta,
		})
		if err != nil {
			return nil, err
		}
	}

	a.logger.Info("Archived analysis report",
		zap.String("analysis_id", res.ID.String()),
		zap.String("report_key", reportKey),
		zap.Bool("with_order", snap.Order != nil),
	)
	return out, nil
}

func (a *ReportArchiver) upload(ctx context.Context, obj Object) (string, time.Time, error) {
	obj.ContentType = csvContentType
	if err := a.store.Put(ctx, obj); err != nil {
		return "", time.Time{}, err
	}
	return a.store.PresignGet(ctx, obj.Key, a.expiry)
}

// Ping checks the underlying store when it supports health checks
func (a *ReportArchiver) Ping(ctx context.Context) error {
	if p, ok := a.store.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}
