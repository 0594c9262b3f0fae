// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package drawstate

// DrawKind identifies the shape of a draw call.
type DrawKind uint8

const (
	DrawKindDraw DrawKind = iota
	DrawKindIndexed
	DrawKindInstanced
	DrawKindIndexedInstanced
)

var drawKindNames = [...]string{
	DrawKindDraw:             "Draw",
	DrawKindIndexed:          "DrawIndexed",
	DrawKindInstanced:        "DrawInstanced",
	DrawKindIndexedInstanced: "DrawIndexedInstanced",
}

// String returns the device call name of the kind.
func (k DrawKind) String() string {
	if int(k) < len(drawKindNames) {
		return drawKindNames[k]
	}
	return "Unknown"
}

// Indexed reports whether the kind reads the index buffer.
func (k DrawKind) Indexed() bool {
	return k == DrawKindIndexed || k == DrawKindIndexedInstanced
}

// DrawCall holds the arguments of one draw. Use the New* constructors;
// fields not used by Kind are zero.
type DrawCall struct {
	Kind DrawKind

	// Count is the vertex or index count, per instance for instanced draws.
	Count         uint32
	InstanceCount uint32
	// Start is the first vertex, or the first index for indexed draws.
	Start         uint32
	BaseVertex    int32
	StartInstance uint32
}

// NewDraw returns a non-indexed, non-instanced draw.
func NewDraw(vertexCount, startVertex uint32) DrawCall {
	return DrawCall{Kind: DrawKindDraw, Count: vertexCount, InstanceCount: 1, Start: startVertex}
}

// NewDrawIndexed returns an indexed draw.
func NewDrawIndexed(indexCount, startIndex uint32, baseVertex int32) DrawCall {
	return DrawCall{Kind: DrawKindIndexed, Count: indexCount, InstanceCount: 1, Start: startIndex, BaseVertex: baseVertex}
}

// NewDrawInstanced returns an instanced draw.
func NewDrawInstanced(vertexCountPerInstance, instanceCount, startVertex, startInstance uint32) DrawCall {
	return DrawCall{
		Kind:          DrawKindInstanced,
		Count:         vertexCountPerInstance,
		InstanceCount: instanceCount,
		Start:         startVertex,
		StartInstance: startInstance,
	}
}

// NewDrawIndexedInstanced returns an indexed, instanced draw.
func NewDrawIndexedInstanced(indexCountPerInstance, instanceCount, startIndex uint32, baseVertex int32, startInstance uint32) DrawCall {
	return DrawCall{
		Kind:          DrawKindIndexedInstanced,
		Count:         indexCountPerInstance,
		InstanceCount: instanceCount,
		Start:         startIndex,
		BaseVertex:    baseVertex,
		StartInstance: startInstance,
	}
}

// Dispatch issues the draw on dev.
func (d DrawCall) Dispatch(dev CommandContext) error {
	switch d.Kind {
	case DrawKindIndexed:
		return dev.DrawIndexed(d.Count, d.Start, d.BaseVertex)
	case DrawKindInstanced:
		return dev.DrawInstanced(d.Count, d.InstanceCount, d.Start, d.StartInstance)
	case DrawKindIndexedInstanced:
		return dev.DrawIndexedInstanced(d.Count, d.InstanceCount, d.Start, d.BaseVertex, d.StartInstance)
	default:
		return dev.Draw(d.Count, d.Start)
	}
}
