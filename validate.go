// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package drawstate

import "fmt"

// validateBindings runs the checks compiled in by the drawstate_debug tag.
func validateBindings(ctx *RenderContext, b *ResourceBindingSet) error {
	if !ctx.caps.VertexStageSampling && b.Samplers(StageVertex).lastBound() > 0 {
		return fmt.Errorf("%w: vertex-stage samplers", ErrCapabilityUnsupported)
	}
	for s := Stage(0); s < numStages; s++ {
		views := b.ShaderResources(s).Values()
		for i, v := range views {
			if v == InvalidID {
				continue
			}
			for j := i + 1; j < len(views); j++ {
				if views[j] == v {
					return fmt.Errorf("%w: view %d in %s slots %d and %d", ErrResourceAlreadyBound, v, s, i, j)
				}
			}
		}
	}
	return nil
}
