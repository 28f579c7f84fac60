// Copyright (C) 2025 CodeAtlas AI (oss@codeatlas.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package extract

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/codeatlas-ai/codeatlas/services/atlas/graph"
)

var (
	pyDefRe    = regexp.MustCompile(`^(?:async\s+)?def\s+([A-Za-z_]\w*)\s*\(`)
	pyClassRe  = regexp.MustCompile(`^class\s+([A-Za-z_]\w*)\s*(?:\(([^)]*)\))?\s*:`)
	pyImportRe = regexp.MustCompile(`^import\s+(.+)$`)
	pyFromRe   = regexp.MustCompile(`^from\s+([\w.]+)\s+import\b`)
	pyVarRe    = regexp.MustCompile(`^([A-Za-z_]\w*)\s*(?::\s*[^=]+)?=[^=]`)
)

// pyDeny lists built-ins that never become call edges. A call edge to
// print or len is noise, not structure.
var pyDeny = map[string]struct{}{
	"print": {}, "len": {}, "range": {}, "str": {}, "int": {},
	"float": {}, "list": {}, "dict": {}, "set": {}, "tuple": {},
	"type": {}, "isinstance": {}, "super": {}, "open": {},
	"enumerate": {}, "zip": {}, "sorted": {}, "abs": {},
	"min": {}, "max": {}, "sum": {},
}

// Python extracts Python source files.
//
// Description:
//
//	Recognizes def and class declarations, import and from-import
//	statements, and top-level assignments. Call edges connect a
//	function to same-file functions that were declared earlier in the
//	file; forward references and cross-file calls are ignored. Calls
//	outside any function are attributed to the file's module node.
//	Inheritance edges connect a class to same-file base classes.
//
// Thread Safety:
//
//	Safe for concurrent use.
type Python struct {
	cfg config
}

// NewPython creates a Python extractor.
func NewPython(opts ...Option) *Python {
	return &Python{cfg: newConfig(opts)}
}

// Language returns "python".
func (p *Python) Language() string { return "python" }

// Extensions returns the handled extensions.
func (p *Python) Extensions() []string { return []string{".py"} }

// openDecl is a def or class whose body is still being scanned.
type openDecl struct {
	node   *graph.Node
	indent int
	isFunc bool
}

// Extract scans Python content line by line.
func (p *Python) Extract(ctx context.Context, content []byte, filePath string) (*graph.Fragment, error) {
	if len(content) > p.cfg.maxFileSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrContentTooLarge, len(content))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	frag := &graph.Fragment{}
	knownFuncs := make(map[string]struct{})
	knownClasses := make(map[string]struct{})
	seenImports := make(map[string]struct{})
	seenEdges := make(map[string]struct{})

	var stack []openDecl
	lastNonEmpty := 0

	closeTo := func(indent int) {
		for len(stack) > 0 && indent <= stack[len(stack)-1].indent {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if top.node.LineEnd == 0 {
				top.node.LineEnd = lastNonEmpty
			}
		}
	}

	// currentFunc returns the innermost enclosing function, if any.
	currentFunc := func() (string, bool) {
		for i := len(stack) - 1; i >= 0; i-- {
			if stack[i].isFunc {
				return stack[i].node.Name, true
			}
		}
		return "", false
	}

	lines := splitLines(content)
	for i, line := range lines {
		ln := i + 1
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		indent := indentOf(line)
		closeTo(indent)
		lastNonEmpty = ln

		if m := pyClassRe.FindStringSubmatch(trimmed); m != nil {
			name := m[1]
			node := &graph.Node{
				ID:        graph.ClassNodeID(filePath, name),
				Name:      name,
				Type:      graph.NodeClass,
				FilePath:  filePath,
				LineStart: ln,
			}
			frag.Nodes = append(frag.Nodes, node)

			for _, base := range strings.Split(m[2], ",") {
				base = strings.TrimSpace(base)
				if _, ok := knownClasses[base]; !ok {
					continue
				}
				edge := graph.NewEdge(
					graph.ClassNodeID(filePath, name),
					graph.ClassNodeID(filePath, base),
					graph.EdgeInheritance,
				)
				if _, dup := seenEdges[edge.ID]; dup {
					continue
				}
				seenEdges[edge.ID] = struct{}{}
				frag.Edges = append(frag.Edges, edge)
			}

			knownClasses[name] = struct{}{}
			stack = append(stack, openDecl{node: node, indent: indent})
			continue
		}

		if m := pyDefRe.FindStringSubmatch(trimmed); m != nil {
			name := m[1]
			node := &graph.Node{
				ID:        graph.FuncNodeID(filePath, name),
				Name:      name,
				Type:      graph.NodeFunction,
				FilePath:  filePath,
				LineStart: ln,
			}
			frag.Nodes = append(frag.Nodes, node)
			knownFuncs[name] = struct{}{}
			stack = append(stack, openDecl{node: node, indent: indent, isFunc: true})

			// Single-line body: "def foo(): bar()". Only names declared
			// above this def can resolve, so the def itself is already
			// in knownFuncs but its body cannot call forward.
			if body := singleLineBody(trimmed); body != "" {
				addCallEdges(frag, filePath, graph.FuncNodeID(filePath, name), callTargets(body, pyDeny), knownFuncs, seenEdges)
			}
			continue
		}

		if m := pyFromRe.FindStringSubmatch(trimmed); m != nil {
			addImport(frag, m[1], filePath, seenImports)
			continue
		}
		if m := pyImportRe.FindStringSubmatch(trimmed); m != nil {
			for _, part := range strings.Split(m[1], ",") {
				part = strings.TrimSpace(part)
				if idx := strings.Index(part, " as "); idx >= 0 {
					part = part[:idx]
				}
				addImport(frag, part, filePath, seenImports)
			}
			continue
		}

		if indent == 0 {
			if m := pyVarRe.FindStringSubmatch(trimmed); m != nil && !pyKeyword(m[1]) {
				frag.Nodes = append(frag.Nodes, &graph.Node{
					ID:        graph.VarNodeID(filePath, m[1]),
					Name:      m[1],
					Type:      graph.NodeVariable,
					FilePath:  filePath,
					LineStart: ln,
					LineEnd:   ln,
				})
				continue
			}
		}

		callerID := graph.ModuleNodeID(filePath)
		if caller, ok := currentFunc(); ok {
			callerID = graph.FuncNodeID(filePath, caller)
		}
		addCallEdges(frag, filePath, callerID, callTargets(trimmed, pyDeny), knownFuncs, seenEdges)
	}

	// Everything still open ends at the last non-empty line.
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if top.node.LineEnd == 0 {
			top.node.LineEnd = lastNonEmpty
		}
	}

	return frag, nil
}

// singleLineBody returns the statement after the colon of a one-line
// def, or "" if the body is on following lines.
func singleLineBody(defLine string) string {
	depth := 0
	for i, r := range defLine {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ':':
			if depth == 0 {
				body := strings.TrimSpace(defLine[i+1:])
				if body == "" || strings.HasPrefix(body, "#") {
					return ""
				}
				return body
			}
		}
	}
	return ""
}

func pyKeyword(s string) bool {
	switch s {
	case "if", "elif", "else", "for", "while", "return", "pass", "break",
		"continue", "import", "from", "def", "class", "try", "except",
		"finally", "with", "lambda", "global", "nonlocal", "assert",
		"yield", "raise", "del", "not", "and", "or", "in", "is", "None",
		"True", "False", "async", "await", "match", "case":
		return true
	}
	return false
}
