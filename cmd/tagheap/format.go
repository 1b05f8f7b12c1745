package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chazu/tagheap/heap"
)

// maxFormatDepth bounds how deep formatValue descends into nested objects.
const maxFormatDepth = 4

// formatValue renders v for match-failure diagnostics.
func formatValue(h *heap.Heap, v heap.Value) string {
	var sb strings.Builder
	writeValue(&sb, h, v, 0)
	return sb.String()
}

func writeValue(sb *strings.Builder, h *heap.Heap, v heap.Value, depth int) {
	if v.IsUnboxed() {
		sb.WriteString(strconv.FormatInt(v.Int(), 10))
		return
	}
	if depth >= maxFormatDepth {
		sb.WriteString("...")
		return
	}

	switch h.KindOf(v) {
	case heap.KindString:
		sb.WriteString(strconv.Quote(h.StringOf(v)))
	case heap.KindArray:
		sb.WriteByte('[')
		writeFields(sb, h, h.Words(v), depth)
		sb.WriteByte(']')
	case heap.KindVariant:
		sb.WriteString(heap.ConstructorName(h.ConstructorOf(v)))
		if fields := h.Words(v); len(fields) > 0 {
			sb.WriteString(" (")
			writeFields(sb, h, fields, depth)
			sb.WriteByte(')')
		}
	case heap.KindClosure:
		fmt.Fprintf(sb, "<closure %v>", h.ElementAt(v, 0))
	}
}

func writeFields(sb *strings.Builder, h *heap.Heap, fields []heap.Value, depth int) {
	for i, f := range fields {
		if i > 0 {
			sb.WriteString(", ")
		}
		writeValue(sb, h, f, depth+1)
	}
}
