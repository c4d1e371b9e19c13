// Package moderation screens user content with a local word filter followed by an AI safety check.
package moderation

import (
	"strings"
	"unicode"
)

// WordFilter finds listed words in text using an Aho-Corasick automaton.
// Matching is case-insensitive and only whole words count, so "classic" does not match "ass".
// A WordFilter is immutable after construction and safe for concurrent use.
type WordFilter struct {
	root *acNode
}

type acNode struct {
	children map[rune]*acNode
	failure  *acNode
	output   []int // lengths in runes of the words ending here
}

func newACNode() *acNode {
	return &acNode{children: make(map[rune]*acNode)}
}

// NewWordFilter builds the automaton for the given words
func NewWordFilter(words []string) *WordFilter {
	f := &WordFilter{root: newACNode()}
	for _, w := range words {
		f.insert(strings.ToLower(strings.TrimSpace(w)))
	}
	f.buildFailureLinks()
	return f
}

func (f *WordFilter) insert(word string) {
	if word == "" {
		return
	}
	node := f.root
	n := 0
	for _, ch := range word {
		if node.children[ch] == nil {
			node.children[ch] = newACNode()
		}
		node = node.children[ch]
		n++
	}
	node.output = append(node.output, n)
}

func (f *WordFilter) buildFailureLinks() {
	queue := make([]*acNode, 0, len(f.root.children))
	for _, child := range f.root.children {
		child.failure = f.root
		queue = append(queue, child)
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for ch, child := range current.children {
			queue = append(queue, child)

			fail := current.failure
			for fail != nil && fail.children[ch] == nil {
				fail = fail.failure
			}
			if fail == nil {
				child.failure = f.root
			} else {
				child.failure = fail.children[ch]
				child.output = append(child.output, child.failure.output...)
			}
		}
	}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// FirstMatch returns the first listed word found in text, as it was written there
func (f *WordFilter) FirstMatch(text string) (string, bool) {
	original := []rune(text)
	lower := []rune(strings.ToLower(text))
	if len(lower) != len(original) {
		// lowering changed the rune count, fall back to a per-rune mapping
		lower = make([]rune, len(original))
		for i, r := range original {
			lower[i] = unicode.ToLower(r)
		}
	}

	node := f.root
	for i, ch := range lower {
		for node != f.root && node.children[ch] == nil {
			node = node.failure
		}
		if next := node.children[ch]; next != nil {
			node = next
		}

		for _, n := range node.output {
			start, end := i-n+1, i+1
			if start > 0 && isWordRune(lower[start-1]) {
				continue
			}
			if end < len(lower) && isWordRune(lower[end]) {
				continue
			}
			return string(original[start:end]), true
		}
	}
	return "", false
}

// Contains reports whether text has any listed word
func (f *WordFilter) Contains(text string) bool {
	_, ok := f.FirstMatch(text)
	return ok
}
