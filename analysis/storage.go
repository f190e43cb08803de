package analysis

import (
	"context"

	"github.com/ardnew/klisp/lang"
	"github.com/ardnew/klisp/log"
)

// readOnly lets analysis passes read storage without committing writes. A
// pass runs on every edit, so a db-put in a document must not reach the
// database until the code is actually evaluated.
type readOnly struct {
	lang.Storage
	logger log.Logger
}

func (r readOnly) Put(ctx context.Context, key, _ string) error {
	r.logger.TraceContext(ctx, "analysis dropped storage write", keyAttr(key))

	return nil
}

func (r readOnly) Delete(ctx context.Context, key string) error {
	r.logger.TraceContext(ctx, "analysis dropped storage delete", keyAttr(key))

	return nil
}
