package analysis

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/catalogrecon/backend/internal/domain/catalog"
	csvimport "github.com/catalogrecon/backend/internal/infrastructure/import"
	"github.com/google/uuid"
)

// snapshotDoc is the stored form of a Snapshot. Annotations and file
// errors have no JSON form of their own and are flattened here.
type snapshotDoc struct {
	Result      *Result                            `json:"result"`
	Annotations map[uuid.UUID][]catalog.Annotation `json:"annotations,omitempty"`
	FileErrors  []fileErrorDoc                     `json:"file_errors,omitempty"`
	Order       *catalog.Order                     `json:"order,omitempty"`
	CreatedAt   time.Time                          `json:"created_at"`
}

type fileErrorDoc struct {
	File    string `json:"file"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// EncodeSnapshot serializes a snapshot for an external store
func EncodeSnapshot(snap *Snapshot) ([]byte, error) {
	if snap == nil || snap.Result == nil {
		return nil, fmt.Errorf("snapshot has no result")
	}

	res := *snap.Result
	doc := snapshotDoc{
		Result:    &res,
		Order:     snap.Order,
		CreatedAt: snap.CreatedAt,
	}
	if res.Annotations != nil {
		doc.Annotations = res.Annotations.All()
	}
	for _, fe := range res.FileErrors {
		doc.FileErrors = append(doc.FileErrors, fileErrorDoc{
			File:    fe.File,
			Code:    fe.Code(),
			Message: fe.Err.Error(),
		})
	}
	res.FileErrors = nil

	return json.Marshal(doc)
}

// DecodeSnapshot restores a snapshot written by EncodeSnapshot
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var doc snapshotDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if doc.Result == nil {
		return nil, fmt.Errorf("failed to decode snapshot: missing result")
	}

	res := doc.Result
	res.Annotations = catalog.NewAnnotations()
	for id, list := range doc.Annotations {
		for _, an := range list {
			res.Annotations.Add(id, an.Field, an.Highlight)
		}
	}
	for _, fe := range doc.FileErrors {
		res.FileErrors = append(res.FileErrors, csvimport.RestoreFileError(fe.File, fe.Code, fe.Message))
	}

	return &Snapshot{Result: res, Order: doc.Order, CreatedAt: doc.CreatedAt}, nil
}
