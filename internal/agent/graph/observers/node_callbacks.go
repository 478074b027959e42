package observers

import (
	"context"
	"time"

	einocb "github.com/cloudwego/eino/callbacks"

	logx "github.com/clinic-frontdesk/agent/pkg/logger"
)

type nodeStartKey struct{}

// newNodeHandler times each graph node. Node names are the graph keys
// (prepare, supervisor, handler_<id>, loop_guard, finalize).
func newNodeHandler() einocb.Handler {
	return einocb.NewHandlerBuilder().
		OnStartFn(func(ctx context.Context, info *einocb.RunInfo, _ einocb.CallbackInput) context.Context {
			return context.WithValue(ctx, nodeStartKey{}, time.Now())
		}).
		OnEndFn(func(ctx context.Context, info *einocb.RunInfo, _ einocb.CallbackOutput) context.Context {
			ev := logx.Debug().Str("node", nodeName(info))
			if start, ok := ctx.Value(nodeStartKey{}).(time.Time); ok {
				ev = ev.Dur("elapsed", time.Since(start))
			}
			ev.Msg("Node done")
			return ctx
		}).
		OnErrorFn(func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			logx.Error().Err(err).Str("node", nodeName(info)).Msg("Node failed")
			return ctx
		}).
		Build()
}

func nodeName(info *einocb.RunInfo) string {
	if info == nil {
		return ""
	}
	return info.Name
}
