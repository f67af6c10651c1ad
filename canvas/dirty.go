package canvas

import "image"

// touching reports overlap or edge adjacency, the condition under which two
// dirty rectangles can be flushed as one without covering extra pixels
// beyond their union bounding box.
func touching(a, b image.Rectangle) bool {
	return !a.Intersect(b.Inset(-1)).Empty()
}

// MergeAdjacent folds overlapping/adjacent rectangles into their union,
// repeating until stable. Merging is an optimization only: every input
// rectangle is independently valid to transmit.
func MergeAdjacent(rs []image.Rectangle) []image.Rectangle {
	out := append([]image.Rectangle(nil), rs...)
	for {
		merged := false
		for i := 0; i < len(out) && !merged; i++ {
			for j := i + 1; j < len(out); j++ {
				if touching(out[i], out[j]) {
					out[i] = out[i].Union(out[j])
					out = append(out[:j], out[j+1:]...)
					merged = true
					break
				}
			}
		}
		if !merged {
			return out
		}
	}
}
