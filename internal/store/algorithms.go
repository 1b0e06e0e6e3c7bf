package store

import (
	"context"
	"sort"

	"github.com/heefoo/codexray/internal/model"
)

// ImpactEntry is one node reached while computing an impact radius.
type ImpactEntry struct {
	Node     model.Node
	Distance int
	Path     []string // node ids from the starting node to this one, inclusive
}

// GetImpactRadius reverse-BFS's the dependent direction (source depends on
// target, so we walk edges backwards from id) over the impact edge kinds,
// stopping at maxDepth. The starting node is excluded from the result.
func (s *Store) GetImpactRadius(ctx context.Context, id string, maxDepth int) ([]ImpactEntry, error) {
	visited := map[string]int{id: 0}
	parent := map[string]string{}
	order := []string{id}

	type queued struct {
		id    string
		depth int
	}
	queue := []queued{{id, 0}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= maxDepth {
			continue
		}
		_, incoming, err := s.adjacency(ctx, cur.id, model.ImpactEdgeKinds)
		if err != nil {
			return nil, err
		}
		neighbors := make([]string, 0, len(incoming))
		for _, e := range incoming {
			neighbors = append(neighbors, e.SourceID)
		}
		sort.Strings(neighbors)
		for _, nb := range neighbors {
			if _, seen := visited[nb]; seen {
				continue
			}
			visited[nb] = cur.depth + 1
			parent[nb] = cur.id
			order = append(order, nb)
			queue = append(queue, queued{nb, cur.depth + 1})
		}
	}

	var out []ImpactEntry
	for _, nid := range order {
		if nid == id {
			continue
		}
		n, err := s.GetNode(ctx, nid)
		if err != nil {
			return nil, err
		}
		if n == nil {
			continue
		}
		out = append(out, ImpactEntry{Node: *n, Distance: visited[nid], Path: reconstructPath(parent, nid, id)})
	}
	return out, nil
}

func reconstructPath(parent map[string]string, from, root string) []string {
	var rev []string
	cur := from
	for {
		rev = append(rev, cur)
		if cur == root {
			break
		}
		p, ok := parent[cur]
		if !ok {
			break
		}
		cur = p
	}
	for i, j := 0, len(rev)-1; i < j; i, j = i+1, j-1 {
		rev[i], rev[j] = rev[j], rev[i]
	}
	return rev
}

// FindPath runs a plain BFS over the undirected union of all edges from
// fromID, returning the node id sequence to toID, or nil if unreachable
// within maxDepth.
func (s *Store) FindPath(ctx context.Context, fromID, toID string, maxDepth int) ([]string, error) {
	if fromID == toID {
		return []string{fromID}, nil
	}
	visited := map[string]bool{fromID: true}
	parent := map[string]string{}

	type queued struct {
		id    string
		depth int
	}
	queue := []queued{{fromID, 0}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= maxDepth {
			continue
		}
		neighbors, err := s.undirectedNeighbors(ctx, cur.id)
		if err != nil {
			return nil, err
		}
		for _, nb := range neighbors {
			if visited[nb] {
				continue
			}
			visited[nb] = true
			parent[nb] = cur.id
			if nb == toID {
				return reconstructPath(parent, toID, fromID), nil
			}
			queue = append(queue, queued{nb, cur.depth + 1})
		}
	}
	return nil, nil
}

func (s *Store) undirectedNeighbors(ctx context.Context, id string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT source_id, target_id FROM edges WHERE source_id = ? OR target_id = ?", id, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var src, dst string
		if err := rows.Scan(&src, &dst); err != nil {
			return nil, err
		}
		if src == id {
			out = append(out, dst)
		} else {
			out = append(out, src)
		}
	}
	sort.Strings(out)
	return out, rows.Err()
}

const maxReportedCycles = 20

// FindCircularDeps runs three-color DFS over the cycle edge kinds, capping
// the number of reported cycles at 20.
func (s *Store) FindCircularDeps(ctx context.Context) ([][]string, error) {
	nodeIDs, err := s.allNodeIDsOrdered(ctx)
	if err != nil {
		return nil, err
	}
	adj, err := s.loadAdjacency(ctx, model.CycleEdgeKinds)
	if err != nil {
		return nil, err
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(nodeIDs))
	stack := []string{}
	onStack := map[string]bool{}
	var cycles [][]string

	var visit func(id string)
	visit = func(id string) {
		if len(cycles) >= maxReportedCycles {
			return
		}
		color[id] = gray
		stack = append(stack, id)
		onStack[id] = true

		for _, next := range adj[id] {
			if len(cycles) >= maxReportedCycles {
				break
			}
			switch color[next] {
			case white:
				visit(next)
			case gray:
				cycles = append(cycles, closeCycle(stack, next))
			}
		}

		stack = stack[:len(stack)-1]
		onStack[id] = false
		color[id] = black
	}

	for _, id := range nodeIDs {
		if len(cycles) >= maxReportedCycles {
			break
		}
		if color[id] == white {
			visit(id)
		}
	}
	return cycles, nil
}

func closeCycle(stack []string, target string) []string {
	idx := 0
	for i, id := range stack {
		if id == target {
			idx = i
			break
		}
	}
	cycle := append([]string{}, stack[idx:]...)
	cycle = append(cycle, target)
	return cycle
}

func (s *Store) allNodeIDsOrdered(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id FROM nodes ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) loadAdjacency(ctx context.Context, kinds []model.EdgeKind) (map[string][]string, error) {
	placeholders, args := kindArgs(kinds)
	rows, err := s.db.QueryContext(ctx,
		"SELECT source_id, target_id FROM edges WHERE kind IN ("+placeholders+") ORDER BY source_id, target_id", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	adj := map[string][]string{}
	for rows.Next() {
		var src, dst string
		if err := rows.Scan(&src, &dst); err != nil {
			return nil, err
		}
		adj[src] = append(adj[src], dst)
	}
	return adj, rows.Err()
}

// DeadCodeFilter narrows find_dead_code's candidate kinds and exported
// scope.
type DeadCodeFilter struct {
	Kinds        []model.NodeKind
	ExportedOnly bool
}

// FindDeadCode returns nodes of the requested kinds with zero incoming
// edges of a kind that would keep them reachable.
func (s *Store) FindDeadCode(ctx context.Context, filter DeadCodeFilter) ([]model.Node, error) {
	kinds := filter.Kinds
	if len(kinds) == 0 {
		kinds = model.HotspotKinds
	}
	kindPlaceholders, kindArgsList := kindNodeArgs(kinds)
	edgePlaceholders, edgeArgsList := kindArgs(model.DeadCodeEdgeKinds)

	query := `
		SELECT ` + nodeColumns + ` FROM nodes
		WHERE kind IN (` + kindPlaceholders + `)
		AND id NOT IN (
			SELECT target_id FROM edges WHERE kind IN (` + edgePlaceholders + `)
		)
	`
	args := append(kindArgsList, edgeArgsList...)
	if !filter.ExportedOnly {
		query += " AND exported = 0"
	}
	query += " ORDER BY file_path, start_line"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectNodes(rows)
}

func kindNodeArgs(kinds []model.NodeKind) (string, []interface{}) {
	placeholders := ""
	args := make([]interface{}, len(kinds))
	for i, k := range kinds {
		if i > 0 {
			placeholders += ", "
		}
		placeholders += "?"
		args[i] = string(k)
	}
	return placeholders, args
}

// Hotspot is a node ranked by its combined in/out degree.
type Hotspot struct {
	Node     model.Node
	InDegree int
	OutDegree int
}

// FindHotspots computes in-degree and out-degree across all edge kinds for
// nodes of the hotspot-eligible kinds, returning the top limit by sum.
func (s *Store) FindHotspots(ctx context.Context, limit int) ([]Hotspot, error) {
	kindPlaceholders, kindArgsList := kindNodeArgs(model.HotspotKinds)
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+nodeColumns+` FROM nodes WHERE kind IN (`+kindPlaceholders+`)
	`, kindArgsList...)
	if err != nil {
		return nil, err
	}
	nodes, err := collectNodes(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	out := make([]Hotspot, 0, len(nodes))
	for _, n := range nodes {
		var inDeg, outDeg int
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM edges WHERE target_id = ?", n.ID).Scan(&inDeg); err != nil {
			return nil, err
		}
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM edges WHERE source_id = ?", n.ID).Scan(&outDeg); err != nil {
			return nil, err
		}
		out = append(out, Hotspot{Node: n, InDegree: inDeg, OutDegree: outDeg})
	}

	sort.Slice(out, func(i, j int) bool {
		si, sj := out[i].InDegree+out[i].OutDegree, out[j].InDegree+out[j].OutDegree
		if si != sj {
			return si > sj
		}
		return out[i].Node.ID < out[j].Node.ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// GetComplexityReport returns nodes at or above threshold, descending.
func (s *Store) GetComplexityReport(ctx context.Context, threshold int) ([]model.Node, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+nodeColumns+" FROM nodes WHERE complexity >= ? ORDER BY complexity DESC, id", threshold)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectNodes(rows)
}
