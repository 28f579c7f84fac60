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
	javaImportRe = regexp.MustCompile(`^import\s+(?:static\s+)?([\w.]+(?:\.\*)?)\s*;`)
	javaClassRe  = regexp.MustCompile(`^(?:(?:public|protected|private|abstract|final|static)\s+)*(?:class|interface|enum)\s+(\w+)(?:\s+extends\s+([\w,\s<>]+?))?(?:\s+implements\s+([\w,\s<>]+?))?\s*\{?\s*$`)
	javaMethodRe = regexp.MustCompile(`^(?:(?:public|protected|private|static|final|abstract|synchronized|native|default)\s+)+(?:[\w<>\[\],.\s]+\s+)?(\w+)\s*\([^;]*$`)
	javaFieldRe  = regexp.MustCompile(`^(?:(?:public|protected|private|static|final|transient|volatile)\s+)+[\w<>\[\],.\s]+\s+(\w+)\s*(?:=[^=]|;)`)
)

// javaDeny lists runtime names that never become call edges.
var javaDeny = map[string]struct{}{
	"println": {}, "toString": {}, "print": {}, "printf": {},
	"equals": {}, "hashCode": {}, "valueOf": {}, "format": {},
	"length": {}, "size": {}, "get": {}, "put": {}, "add": {},
	// Control flow keywords the call regex would otherwise match.
	"if": {}, "for": {}, "while": {}, "switch": {}, "catch": {},
	"return": {}, "new": {}, "super": {}, "this": {}, "throw": {},
	"synchronized": {},
}

// Java extracts Java source files.
//
// Description:
//
//	Recognizes class/interface/enum declarations (with extends and
//	implements), method declarations by their modifier prefix, import
//	statements, and field declarations. Call edges connect a method to
//	same-file methods declared earlier; calls outside any method, such
//	as static initializer blocks, are attributed to the file's module
//	node. Inheritance edges connect a type to same-file supertypes.
//
// Thread Safety:
//
//	Safe for concurrent use.
type Java struct {
	cfg config
}

// NewJava creates a Java extractor.
func NewJava(opts ...Option) *Java {
	return &Java{cfg: newConfig(opts)}
}

// Language returns "java".
func (j *Java) Language() string { return "java" }

// Extensions returns the handled extensions.
func (j *Java) Extensions() []string { return []string{".java"} }

// Extract scans Java content line by line, tracking brace depth to
// attribute calls to the enclosing method.
func (j *Java) Extract(ctx context.Context, content []byte, filePath string) (*graph.Fragment, error) {
	if len(content) > j.cfg.maxFileSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrContentTooLarge, len(content))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	frag := &graph.Fragment{}
	knownMethods := make(map[string]struct{})
	knownTypes := make(map[string]struct{})
	seenImports := make(map[string]struct{})
	seenEdges := make(map[string]struct{})

	depth := 0
	var currentMethod *graph.Node
	methodDepth := 0
	lastNonEmpty := 0
	inBlockComment := false

	for i, line := range splitLines(content) {
		ln := i + 1
		trimmed := strings.TrimSpace(line)

		if inBlockComment {
			if idx := strings.Index(trimmed, "*/"); idx >= 0 {
				inBlockComment = false
				trimmed = strings.TrimSpace(trimmed[idx+2:])
			} else {
				continue
			}
		}
		if idx := strings.Index(trimmed, "/*"); idx >= 0 && !strings.Contains(trimmed[idx:], "*/") {
			inBlockComment = true
			trimmed = strings.TrimSpace(trimmed[:idx])
		}
		if idx := strings.Index(trimmed, "//"); idx >= 0 {
			trimmed = strings.TrimSpace(trimmed[:idx])
		}
		if trimmed == "" {
			continue
		}
		lastNonEmpty = ln

		matched := false
		switch {
		case javaImportRe.MatchString(trimmed):
			m := javaImportRe.FindStringSubmatch(trimmed)
			addImport(frag, strings.TrimSuffix(m[1], ".*"), filePath, seenImports)
			matched = true

		case depth == 0 && javaClassRe.MatchString(trimmed):
			m := javaClassRe.FindStringSubmatch(trimmed)
			name := m[1]
			frag.Nodes = append(frag.Nodes, &graph.Node{
				ID:        graph.ClassNodeID(filePath, name),
				Name:      name,
				Type:      graph.NodeClass,
				FilePath:  filePath,
				LineStart: ln,
			})

			for _, super := range splitTypeList(m[2], m[3]) {
				if _, ok := knownTypes[super]; !ok {
					continue
				}
				edge := graph.NewEdge(
					graph.ClassNodeID(filePath, name),
					graph.ClassNodeID(filePath, super),
					graph.EdgeInheritance,
				)
				if _, dup := seenEdges[edge.ID]; dup {
					continue
				}
				seenEdges[edge.ID] = struct{}{}
				frag.Edges = append(frag.Edges, edge)
			}
			knownTypes[name] = struct{}{}
			matched = true

		case depth == 1 && currentMethod == nil && javaMethodRe.MatchString(trimmed) &&
			strings.Contains(trimmed, "(") && !strings.HasSuffix(trimmed, ";"):
			m := javaMethodRe.FindStringSubmatch(trimmed)
			name := m[1]
			node := &graph.Node{
				ID:        graph.FuncNodeID(filePath, name),
				Name:      name,
				Type:      graph.NodeFunction,
				FilePath:  filePath,
				LineStart: ln,
			}
			frag.Nodes = append(frag.Nodes, node)
			knownMethods[name] = struct{}{}
			currentMethod = node
			methodDepth = depth
			matched = true

		case depth == 1 && currentMethod == nil && javaFieldRe.MatchString(trimmed):
			m := javaFieldRe.FindStringSubmatch(trimmed)
			frag.Nodes = append(frag.Nodes, &graph.Node{
				ID:        graph.VarNodeID(filePath, m[1]),
				Name:      m[1],
				Type:      graph.NodeVariable,
				FilePath:  filePath,
				LineStart: ln,
				LineEnd:   ln,
			})
			matched = true
		}

		if !matched {
			callerID := graph.ModuleNodeID(filePath)
			if currentMethod != nil && depth > methodDepth {
				callerID = graph.FuncNodeID(filePath, currentMethod.Name)
			}
			addCallEdges(frag, filePath, callerID, callTargets(trimmed, javaDeny), knownMethods, seenEdges)
		}

		depth += strings.Count(trimmed, "{") - strings.Count(trimmed, "}")
		if depth < 0 {
			depth = 0
		}
		if currentMethod != nil && depth <= methodDepth {
			currentMethod.LineEnd = ln
			currentMethod = nil
		}
	}

	if currentMethod != nil {
		currentMethod.LineEnd = lastNonEmpty
	}

	return frag, nil
}

// splitTypeList flattens extends and implements clauses into bare type
// names, dropping generic parameters.
func splitTypeList(parts ...string) []string {
	var names []string
	for _, part := range parts {
		for _, name := range strings.Split(part, ",") {
			name = strings.TrimSpace(name)
			if idx := strings.Index(name, "<"); idx >= 0 {
				name = name[:idx]
			}
			if name != "" {
				names = append(names, name)
			}
		}
	}
	return names
}
