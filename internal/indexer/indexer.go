// Package indexer implements the Differential Indexer: projecting a
// single commit's diffs onto the hierarchical symbols of every changed
// file and upserting the resulting property-graph nodes and edges.
package indexer

import (
	"context"
	"fmt"
	"strings"

	"github.com/irinasmt/rcabrain/internal/diagnostics"
	"github.com/irinasmt/rcabrain/internal/diffproj"
	"github.com/irinasmt/rcabrain/internal/graphstore"
	"github.com/irinasmt/rcabrain/internal/hierarchy"
	"github.com/irinasmt/rcabrain/internal/models"
	"github.com/irinasmt/rcabrain/internal/rcalog"
	"github.com/irinasmt/rcabrain/internal/reposource"
	"github.com/irinasmt/rcabrain/internal/servicemap"
	"golang.org/x/sync/errgroup"
)

const semanticDeltaLineCap = 40

// DifferentialIndexer projects one commit's diffs onto the hierarchical
// symbols of its changed files and upserts the resulting nodes/edges.
type DifferentialIndexer struct {
	Services servicemap.Map
	Store    graphstore.Store
	// Source resolves a service's repository source. In single-repo
	// setups every service maps to the same reposource.Source instance.
	Source func(repo models.RepoEntry) reposource.Source
}

// NewDifferentialIndexer builds an indexer that always uses the same
// Source regardless of the resolved RepoEntry, the common case when one
// reposource.Source instance already serves every registered service.
func NewDifferentialIndexer(services servicemap.Map, store graphstore.Store, source reposource.Source) *DifferentialIndexer {
	return &DifferentialIndexer{
		Services: services,
		Store:    store,
		Source:   func(models.RepoEntry) reposource.Source { return source },
	}
}

// IndexCommit runs the 13-step pipeline for every file in req, returning
// the number of nodes upserted and any diagnostics raised along the way.
func (idx *DifferentialIndexer) IndexCommit(ctx context.Context, req models.DifferentialIndexerRequest) (int, []models.IndexingDiagnostic, error) {
	log, _ := rcalog.NewLogger(rcalog.Config{Level: rcalog.INFO})
	log = log.With("service", req.Service, "commit_sha", req.CommitSHA)
	collector := diagnostics.NewCollector()

	if err := req.Validate(); err != nil {
		collector.Error("resolve", fmt.Sprintf("invalid request: %v", err), "", req.CommitSHA)
		log.Error("indexer: invalid request", "stage", "resolve", "error", err)
		return 0, collector.Items(), nil
	}

	repo, err := idx.Services.Get(ctx, req.Service)
	if err != nil {
		collector.Error("resolve", fmt.Sprintf("service %q is not registered: %v", req.Service, err), "", req.CommitSHA)
		log.Error("indexer: service resolve failed", "stage", "resolve", "error", err)
		return 0, collector.Items(), nil
	}
	source := idx.Source(repo)

	filePaths := req.FilePaths
	if len(filePaths) == 0 {
		filePaths, err = source.ListChangedFiles(ctx, req.CommitSHA)
		if err != nil {
			collector.Error("list_files", fmt.Sprintf("list changed files: %v", err), "", req.CommitSHA)
			log.Error("indexer: list changed files failed", "stage", "list_files", "error", err)
			return 0, collector.Items(), nil
		}
	}

	counts := make([]int, len(filePaths))
	fileDiags := make([]*diagnostics.Collector, len(filePaths))

	g, gctx := errgroup.WithContext(ctx)
	for i, path := range filePaths {
		i, path := i, path
		fileDiags[i] = diagnostics.NewCollector()
		g.Go(func() error {
			n := idx.indexFile(gctx, source, repo, req, path, fileDiags[i])
			counts[i] = n
			return nil
		})
	}
	_ = g.Wait() // per-file errors surface as diagnostics, never as a group error

	total := 0
	for i := range filePaths {
		total += counts[i]
		collector.Merge(fileDiags[i])
	}
	for _, d := range collector.Items() {
		filePath := ""
		if d.FilePath != nil {
			filePath = *d.FilePath
		}
		switch d.Severity {
		case models.SeverityError:
			log.Error("indexer: diagnostic", "stage", d.Stage, "file_path", filePath, "message", d.Message)
		case models.SeverityWarning:
			log.Warn("indexer: diagnostic", "stage", d.Stage, "file_path", filePath, "message", d.Message)
		}
	}
	log.Info("indexer: commit indexed", "files", len(filePaths), "nodes_upserted", total)
	return total, collector.Items(), nil
}

func (idx *DifferentialIndexer) indexFile(ctx context.Context, source reposource.Source, repo models.RepoEntry, req models.DifferentialIndexerRequest, filePath string, diags *diagnostics.Collector) int {
	diff, err := source.GetDiff(ctx, req.CommitSHA, filePath)
	if err != nil {
		diags.Error("diff", fmt.Sprintf("get diff: %v", err), filePath, req.CommitSHA)
		return 0
	}

	if diffproj.IsFileDeleted(diff) {
		return idx.retainDeletedNodes(ctx, req, filePath, diags)
	}
	fileAdded := diffproj.IsFileAdded(diff)

	content, err := source.GetFile(ctx, req.CommitSHA, filePath)
	if err != nil {
		diags.Error("parse", fmt.Sprintf("get file: %v", err), filePath, req.CommitSHA)
		return 0
	}
	src := []byte(content)

	lang := hierarchy.DetectLanguage(filePath)
	rawNodes, err := hierarchy.Parse(src, lang, filePath)
	if err != nil {
		diags.Warning("parse", fmt.Sprintf("parse hierarchy: %v", err), filePath, req.CommitSHA)
		return 0
	}
	if len(rawNodes) == 0 {
		diags.Warning("parse", "hierarchy parser produced no nodes", filePath, req.CommitSHA)
		return 0
	}

	enriched := enrichPositions(rawNodes, src)
	hunks := diffproj.ParseHunks(diff)
	ranges := diffproj.Ranges(hunks)

	byScopeKey := make(map[string]*fileNode, len(enriched))
	for _, en := range enriched {
		status := models.StatusUnchanged
		switch {
		case fileAdded:
			status = models.StatusAdded
		case diffproj.Overlaps(en.StartLine, en.EndLine, ranges):
			status = models.StatusModified
		}
		fn := &fileNode{enrichedNode: en, Status: status}
		fn.ID = NodeID(req.Service, filePath, en.Name, en.StartLine)
		if req.EnableSemanticDelta && status == models.StatusModified {
			fn.SemanticDelta = summarizeDelta(hunks, en.StartLine, en.EndLine)
		}
		byScopeKey[en.ScopeKey] = fn
	}

	propagateStatusUpward(byScopeKey)

	nodes := make([]models.Node, 0, len(byScopeKey))
	for _, fn := range byScopeKey {
		switch fn.Status {
		case models.StatusModified:
			fn.Text = diffproj.ExtractPatchText(hunks, fn.StartLine, fn.EndLine)
		case models.StatusAdded:
			fn.Text = sourceSlice(src, fn.StartLine, fn.EndLine)
		default:
			fn.Text = ""
		}
		node := models.Node{
			ID:            fn.ID,
			Label:         "Symbol",
			Service:       req.Service,
			FilePath:      filePath,
			SymbolName:    fn.Name,
			SymbolKind:    fn.Kind,
			StartLine:     fn.StartLine,
			EndLine:       fn.EndLine,
			Status:        fn.Status,
			CommitSHA:     req.CommitSHA,
			Text:          fn.Text,
			SemanticDelta: fn.SemanticDelta,
			Properties:    graphstore.SanitizeProperties(map[string]any{"inclusive_scopes": fn.Scopes}),
		}
		nodes = append(nodes, node)
	}

	if err := idx.Store.UpsertNodes(ctx, nodes); err != nil {
		diags.Error("upsert", fmt.Sprintf("upsert nodes: %v", err), filePath, req.CommitSHA)
		return 0
	}

	pairs := buildContainsEdges(byScopeKey)
	if len(pairs) > 0 {
		edges := make([]models.Edge, 0, len(pairs))
		for _, p := range pairs {
			edges = append(edges, models.Edge{Label: "CONTAINS", FromID: p[0], ToID: p[1]})
		}
		if err := idx.Store.UpsertEdges(ctx, edges); err != nil {
			diags.Warning("upsert", fmt.Sprintf("upsert contains edges: %v", err), filePath, req.CommitSHA)
		}
	}

	return len(nodes)
}

// retainDeletedNodes implements deletion retention: either tombstone every existing
// node for filePath, or emit a single file-level tombstone if none exist.
func (idx *DifferentialIndexer) retainDeletedNodes(ctx context.Context, req models.DifferentialIndexerRequest, filePath string, diags *diagnostics.Collector) int {
	existing, err := idx.Store.NodesByProperty(ctx, "file_path", filePath)
	if err != nil {
		diags.Error("upsert", fmt.Sprintf("lookup existing nodes: %v", err), filePath, req.CommitSHA)
		return 0
	}

	if len(existing) == 0 {
		tombstone := models.Node{
			ID:         NodeID(req.Service, filePath, filePath, 0),
			Label:      "Symbol",
			Service:    req.Service,
			FilePath:   filePath,
			SymbolName: filePath,
			SymbolKind: "file",
			Status:     models.StatusDeleted,
			CommitSHA:  req.CommitSHA,
			Text:       "",
		}
		if err := idx.Store.UpsertNodes(ctx, []models.Node{tombstone}); err != nil {
			diags.Error("upsert", fmt.Sprintf("upsert tombstone: %v", err), filePath, req.CommitSHA)
			return 0
		}
		return 1
	}

	updated := make([]models.Node, 0, len(existing))
	for _, n := range existing {
		n.Status = models.StatusDeleted
		n.Text = ""
		n.PriorPath = n.FilePath
		n.CommitSHA = req.CommitSHA
		updated = append(updated, n)
	}
	if err := idx.Store.UpsertNodes(ctx, updated); err != nil {
		diags.Error("upsert", fmt.Sprintf("upsert deleted nodes: %v", err), filePath, req.CommitSHA)
		return 0
	}
	return len(updated)
}

func sourceSlice(src []byte, startLine, endLine int) string {
	lines := strings.Split(string(src), "\n")
	if startLine < 1 {
		startLine = 1
	}
	if endLine > len(lines) {
		endLine = len(lines)
	}
	if startLine > endLine {
		return ""
	}
	return strings.Join(lines[startLine-1:endLine], "\n")
}

// summarizeDelta scans hunks overlapping [startLine, endLine] and returns
// up to semanticDeltaLineCap matching +/- lines.
func summarizeDelta(hunks []diffproj.Hunk, startLine, endLine int) string {
	text := diffproj.ExtractPatchText(hunks, startLine, endLine)
	if text == "" {
		return ""
	}
	lines := strings.Split(text, "\n")
	if len(lines) > semanticDeltaLineCap {
		lines = lines[:semanticDeltaLineCap]
	}
	return strings.Join(lines, "\n")
}
