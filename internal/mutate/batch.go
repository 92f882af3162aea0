package mutate

// Batch applies one mutation per index in order and counts the outcomes.
// One failure never stops the remaining items; callers report the split.
// Order matters for topic and activity moves, so items are never run
// concurrently.
func Batch(n int, apply func(i int) error) (succeeded, failed int) {
	for i := 0; i < n; i++ {
		if err := apply(i); err != nil {
			failed++
			continue
		}
		succeeded++
	}
	return succeeded, failed
}
