package ckassist

// Usage tracks token consumption reported by the model for one reply.
// Thoughts are counted in OutputTokens.
type Usage struct {
	InputTokens     int
	OutputTokens    int
	CacheReadTokens int
}

// Add returns the sum of u and o.
func (u Usage) Add(o Usage) Usage {
	return Usage{
		InputTokens:     u.InputTokens + o.InputTokens,
		OutputTokens:    u.OutputTokens + o.OutputTokens,
		CacheReadTokens: u.CacheReadTokens + o.CacheReadTokens,
	}
}
