package shipping

import (
	"context"
)

// LabelRenderer produces the document attached to a shipment request. The
// bytes are opaque to the bridge; rendering is the host application's
// concern.
type LabelRenderer interface {
	// Render returns the raw document bytes and a filename for a document
	// template applied to a record.
	Render(ctx context.Context, documentID, recordID string) ([]byte, string, error)
}

// NopRenderer renders nothing; shipments go out without an attachment.
type NopRenderer struct{}

func (NopRenderer) Render(ctx context.Context, documentID, recordID string) ([]byte, string, error) {
	return nil, "", nil
}
