package graph

// CompiledGraph is the immutable result of Builder.Compile: a node table,
// an adjacency list of conditional edges, the entry node id, and any
// default-next fallback recorded for a node with no matching edge.
//
// Compiled graphs are shared (read-only) across runs; nodes own no mutable
// state and the graph itself is never mutated after Compile returns.
type CompiledGraph[S Stateful[S]] struct {
	StartNodeID string
	Nodes       map[string]NodeDef[S]
	Edges       map[string][]Edge[S]
	DefaultNext map[string]string
}

// branch tracks one side (then or else) of an open If block: the node its
// first edge connects from, and the running tail of nodes added so far.
type branch struct {
	entryFrom string
	tail      string // empty until the branch's first node is added
}

// Builder provides the fluent graph-construction API described by the spec:
// Start(...).Then(...).If(pred).Then(...).Else().Then(...).EndIf().Then(...).Compile().
//
// It records a linear sequence plus conditional blocks and flattens them to
// a node table and edge list on Compile. Node ids must be unique; every
// Then/If/Else target must be reachable from Start; every If must be
// closed by a matching EndIf before Compile.
type Builder[S Stateful[S]] struct {
	nodes       map[string]NodeDef[S]
	order       []string
	edges       map[string][]Edge[S]
	defaultNext map[string]string
	startID     string

	// openTails are the node ids the next Then()/If() call connects from,
	// outside of any open If block. Len > 1 only right after an EndIf whose
	// then/else branches both produced a tail (a convergence point).
	openTails []string

	frames []*ifFrame[S]
	err    *GraphError
}

type ifFrame[S Stateful[S]] struct {
	thenBranch *branch
	elseBranch *branch
	inElse     bool
	pred       Predicate[S]
}

// NewBuilder creates an empty Builder.
func NewBuilder[S Stateful[S]]() *Builder[S] {
	return &Builder[S]{
		nodes:       make(map[string]NodeDef[S]),
		edges:       make(map[string][]Edge[S]),
		defaultNext: make(map[string]string),
	}
}

func (b *Builder[S]) fail(code, msg, nodeID string) {
	if b.err == nil {
		b.err = &GraphError{Code: code, Message: msg, NodeID: nodeID}
	}
}

func (b *Builder[S]) addNode(id string, node Node[S], kind NodeKind, retry *RetryPolicy) {
	if _, exists := b.nodes[id]; exists {
		b.fail(CodeDuplicateNode, "node id already defined", id)
		return
	}
	b.nodes[id] = NodeDef[S]{ID: id, Kind: kind, Node: node, Retry: retry}
	b.order = append(b.order, id)
}

// activeFrame returns the innermost open If frame, or nil.
func (b *Builder[S]) activeFrame() *ifFrame[S] {
	if len(b.frames) == 0 {
		return nil
	}
	return b.frames[len(b.frames)-1]
}

func (b *Builder[S]) activeBranch() *ifFrame[S] { return b.activeFrame() }

// connectInto wires the given tails to node id, tagging the first edge out
// of each tail with pred (nil for unconditional).
func (b *Builder[S]) connectInto(tails []string, id string, pred Predicate[S]) {
	for _, from := range tails {
		b.edges[from] = append(b.edges[from], Edge[S]{From: from, To: id, When: pred})
	}
}

// Start begins the graph at the given node.
func (b *Builder[S]) Start(id string, node Node[S]) *Builder[S] {
	b.addNode(id, node, NodeKindAgent, nil)
	b.startID = id
	b.openTails = []string{id}
	return b
}

// Then appends node id, connected unconditionally from the current tail(s),
// or — inside an open If block — from the active branch's tail (tagged
// with the block's predicate on the branch's first node).
func (b *Builder[S]) Then(id string, node Node[S]) *Builder[S] {
	return b.thenWithKind(id, node, NodeKindAgent, nil)
}

// ThenRetry is Then with an explicit per-node retry policy.
func (b *Builder[S]) ThenRetry(id string, node Node[S], retry *RetryPolicy) *Builder[S] {
	return b.thenWithKind(id, node, NodeKindAgent, retry)
}

// ThenKind is Then with an explicit NodeKind (e.g. NodeKindTool, NodeKindParallel).
func (b *Builder[S]) ThenKind(id string, node Node[S], kind NodeKind) *Builder[S] {
	return b.thenWithKind(id, node, kind, nil)
}

func (b *Builder[S]) thenWithKind(id string, node Node[S], kind NodeKind, retry *RetryPolicy) *Builder[S] {
	frame := b.activeFrame()
	if frame == nil {
		b.addNode(id, node, kind, retry)
		b.connectInto(b.openTails, id, nil)
		b.openTails = []string{id}
		return b
	}

	br := frame.thenBranch
	if frame.inElse {
		br = frame.elseBranch
	}

	b.addNode(id, node, kind, retry)
	if br.tail == "" {
		var pred Predicate[S]
		if !frame.inElse {
			pred = frame.pred
		}
		b.connectInto([]string{br.entryFrom}, id, pred)
	} else {
		b.connectInto([]string{br.tail}, id, nil)
	}
	br.tail = id
	return b
}

// If opens a conditional block. The current tail must be a single node;
// If immediately after EndIf or after a fan-out Then is invalid graph
// construction and records a build error.
func (b *Builder[S]) If(pred Predicate[S]) *Builder[S] {
	if len(b.openTails) != 1 {
		b.fail(CodeInvalidGraph, "if requires a single current node", "")
		return b
	}
	entry := b.openTails[0]
	frame := &ifFrame[S]{
		thenBranch: &branch{entryFrom: entry},
		elseBranch: &branch{entryFrom: entry},
		pred:       pred,
	}
	b.frames = append(b.frames, frame)
	b.openTails = nil
	return b
}

// Else switches the active If block to its else branch.
func (b *Builder[S]) Else() *Builder[S] {
	frame := b.activeFrame()
	if frame == nil {
		b.fail(CodeInvalidGraph, "else without matching if", "")
		return b
	}
	frame.inElse = true
	return b
}

// EndIf closes the innermost If block. The node(s) that follow converge
// from whichever branch actually ran: the then-branch's tail, and either
// the else-branch's tail (if Else() had a body) or the entry node itself
// (the implicit empty-else path taken when the predicate is false).
func (b *Builder[S]) EndIf() *Builder[S] {
	frame := b.activeFrame()
	if frame == nil {
		b.fail(CodeUnclosedIf, "endif without matching if", "")
		return b
	}
	b.frames = b.frames[:len(b.frames)-1]

	thenTail := frame.thenBranch.tail
	if thenTail == "" {
		thenTail = frame.thenBranch.entryFrom
	}
	elseTail := frame.elseBranch.tail
	if elseTail == "" {
		elseTail = frame.elseBranch.entryFrom
	}

	tails := []string{thenTail}
	if elseTail != thenTail {
		tails = append(tails, elseTail)
	}
	if len(b.frames) == 0 {
		b.openTails = tails
	} else {
		// Not reached: If records a build error when called inside an open
		// block, so frames never nest. The tails are surfaced the same way
		// as at top level.
		b.openTails = tails
	}
	return b
}

// End marks the graph as terminal at the current tail(s): a Stop() route
// is implied for any node whose NodeResult does not set an explicit Route,
// once reached via the edge evaluated from these tails. End performs no
// mutation beyond validation; it exists for fluent symmetry with the
// spec's builder contract.
func (b *Builder[S]) End() *Builder[S] {
	if len(b.frames) != 0 {
		b.fail(CodeUnclosedIf, "end reached with an unclosed if block", "")
	}
	return b
}

// SetDefaultNext records a fallback edge followed when no edge predicate
// matches and the node's own Route does not specify one.
func (b *Builder[S]) SetDefaultNext(from, to string) *Builder[S] {
	b.defaultNext[from] = to
	return b
}

// Compile validates and flattens the builder into an immutable CompiledGraph.
//
// Invariants enforced: node ids unique (checked incrementally), every If has
// a matching EndIf, the start node is set, and every edge target names a
// known node.
func (b *Builder[S]) Compile() (*CompiledGraph[S], error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.startID == "" {
		return nil, &GraphError{Code: CodeNoStartNode, Message: "graph has no start node"}
	}
	if len(b.frames) != 0 {
		return nil, &GraphError{Code: CodeUnclosedIf, Message: "graph has an unclosed if block"}
	}
	for from, es := range b.edges {
		if _, ok := b.nodes[from]; !ok {
			return nil, &GraphError{Code: CodeNodeNotFound, Message: "edge source not defined", NodeID: from}
		}
		for _, e := range es {
			if _, ok := b.nodes[e.To]; !ok {
				return nil, &GraphError{Code: CodeNodeNotFound, Message: "edge target not defined", NodeID: e.To}
			}
		}
	}
	for from, to := range b.defaultNext {
		if _, ok := b.nodes[to]; !ok {
			return nil, &GraphError{Code: CodeNodeNotFound, Message: "default next target not defined", NodeID: from}
		}
	}

	nodes := make(map[string]NodeDef[S], len(b.nodes))
	for k, v := range b.nodes {
		nodes[k] = v
	}
	edges := make(map[string][]Edge[S], len(b.edges))
	for k, v := range b.edges {
		cp := make([]Edge[S], len(v))
		copy(cp, v)
		edges[k] = cp
	}
	defNext := make(map[string]string, len(b.defaultNext))
	for k, v := range b.defaultNext {
		defNext[k] = v
	}

	return &CompiledGraph[S]{
		StartNodeID: b.startID,
		Nodes:       nodes,
		Edges:       edges,
		DefaultNext: defNext,
	}, nil
}
