package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hazyhaar/kanaseek/pkg/collection"
	"github.com/hazyhaar/kanaseek/pkg/importer"
	"github.com/hazyhaar/kanaseek/pkg/kit"
	"github.com/hazyhaar/kanaseek/pkg/query"
	"github.com/hazyhaar/kanaseek/pkg/record"
	"github.com/hazyhaar/kanaseek/pkg/tokenize"
	"github.com/panjf2000/ants/v2"
)

// MaxBatch is the largest number of queries accepted by one batch call.
const MaxBatch = 100

var errBadRequest = errors.New("bad request")

// Shared request/response types used by both HTTP and MCP transports.

type searchReq struct {
	Query string
	Mode  query.Mode
	Limit int
}

type batchReq struct {
	Queries []string
	Mode    query.Mode
	Limit   int
}

type ingestReq struct {
	Columns   []string
	Rows      [][]string
	Tokenizer tokenize.Strategy
}

type batchItem struct {
	*collection.Response
	Error string `json:"error,omitempty"`
}

type batchResponse struct {
	Results []batchItem `json:"results"`
}

type fieldInfo struct {
	Name      string `json:"name"`
	Search    string `json:"search"`
	Tokenized string `json:"tokenized"`
}

type fieldsResponse struct {
	Fields []fieldInfo `json:"fields"`
	Keys   []string    `json:"keys"`
}

type ingestResponse struct {
	Records    int    `json:"records"`
	Fields     int    `json:"fields"`
	Tokenizer  string `json:"tokenizer"`
	Generation uint64 `json:"generation"`
}

// Defaults apply when a request leaves mode or limit unset.
type Defaults struct {
	Mode  query.Mode
	Limit int
}

// Endpoints are the actions exposed by every transport.
type Endpoints struct {
	Search kit.Endpoint
	Batch  kit.Endpoint
	Fields kit.Endpoint
	Ingest kit.Endpoint

	Defaults Defaults
}

// NewEndpoints builds the endpoints backed by coll. Batch queries fan out on
// pool; a nil pool runs them sequentially.
func NewEndpoints(coll *collection.Collection, pool *ants.Pool, logger *slog.Logger, defaults Defaults) *Endpoints {
	wrap := func(name string, ep kit.Endpoint) kit.Endpoint {
		return kit.Chain(kit.RequestID(), kit.Logging(logger, name))(ep)
	}
	return &Endpoints{
		Search:   wrap("search", searchEndpoint(coll)),
		Batch:    wrap("search_batch", batchEndpoint(coll, pool)),
		Fields:   wrap("list_fields", fieldsEndpoint(coll)),
		Ingest:   wrap("ingest", ingestEndpoint(coll)),
		Defaults: defaults,
	}
}

func searchEndpoint(coll *collection.Collection) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*searchReq)
		return coll.Search(req.Query, req.Mode, req.Limit)
	}
}

func batchEndpoint(coll *collection.Collection, pool *ants.Pool) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*batchReq)
		if len(req.Queries) == 0 {
			return nil, fmt.Errorf("%w: queries array is empty", errBadRequest)
		}
		if len(req.Queries) > MaxBatch {
			return nil, fmt.Errorf("%w: too many queries (max %d, got %d)", errBadRequest, MaxBatch, len(req.Queries))
		}

		results := make([]batchItem, len(req.Queries))
		var wg sync.WaitGroup
		for i, q := range req.Queries {
			task := func() {
				defer wg.Done()
				resp, err := coll.Search(q, req.Mode, req.Limit)
				if err != nil {
					results[i].Error = err.Error()
					return
				}
				results[i].Response = resp
			}
			wg.Add(1)
			if pool == nil || pool.Submit(task) != nil {
				task()
			}
		}
		wg.Wait()
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return batchResponse{Results: results}, nil
	}
}

func fieldsEndpoint(coll *collection.Collection) kit.Endpoint {
	return func(_ context.Context, _ any) (any, error) {
		reg, ok := coll.Fields()
		if !ok {
			return nil, collection.ErrNotReady
		}
		resp := fieldsResponse{Fields: []fieldInfo{}, Keys: reg.Keys()}
		for _, name := range reg.Originals() {
			resp.Fields = append(resp.Fields, fieldInfo{
				Name:      name,
				Search:    record.SearchKey(name),
				Tokenized: record.TokenizedKey(name),
			})
		}
		return resp, nil
	}
}

func ingestEndpoint(coll *collection.Collection) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*ingestReq)
		table := &importer.Table{Header: req.Columns, Rows: req.Rows}
		raws, err := table.Records()
		if err != nil {
			return nil, err
		}
		if err := coll.Rebuild(raws, req.Tokenizer); err != nil {
			return nil, err
		}
		st := coll.Stats()
		return ingestResponse{
			Records:    st.Records,
			Fields:     st.Fields,
			Tokenizer:  st.Tokenizer,
			Generation: st.Generation,
		}, nil
	}
}
