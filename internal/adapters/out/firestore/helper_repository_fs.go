// internal/adapters/out/firestore/helper_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"strings"

	gfs "cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var ErrClientNil = errors.New("firestore: client is nil")

func isNotFound(err error) bool      { return status.Code(err) == codes.NotFound }
func isAlreadyExists(err error) bool { return status.Code(err) == codes.AlreadyExists }

// countQuery runs a server-side COUNT aggregation over q.
func countQuery(ctx context.Context, q gfs.Query) (int, error) {
	res, err := q.NewAggregationQuery().WithCount("count").Get(ctx)
	if err != nil {
		return 0, err
	}
	v, ok := res["count"]
	if !ok {
		return 0, errors.New("firestore: count aggregation missing")
	}
	switch t := v.(type) {
	case *firestorepb.Value:
		return int(t.GetIntegerValue()), nil
	case int64:
		return int(t), nil
	default:
		return 0, errors.New("firestore: unexpected count aggregation type")
	}
}

func trimmedIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func strPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
