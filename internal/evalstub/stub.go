// Package evalstub provides a deterministic placeholder mcts.Evaluator:
// a uniform policy over legal moves and a zero value. It is used when no
// trained network is configured and as the test double for the mcts
// package's own tests — loading a real trained network is out of scope.
package evalstub

import "github.com/hailam/nczero/internal/mcts"

// Stub is a uniform-policy, zero-value Evaluator.
type Stub struct{}

// Evaluate returns, for each row, a policy that is uniform over the
// row's legal moves (as marked in lmm) and a value of 0.
func (Stub) Evaluate(boardInput, lmm []float32, batchSize int) ([]mcts.EvalResult, error) {
	results := make([]mcts.EvalResult, batchSize)
	for i := 0; i < batchSize; i++ {
		row := lmm[i*4096 : (i+1)*4096]
		legal := 0
		for _, v := range row {
			if v != 0 {
				legal++
			}
		}
		if legal == 0 {
			continue
		}
		share := float32(1) / float32(legal)
		for j, v := range row {
			if v != 0 {
				results[i].Policy[j] = share
			}
		}
	}
	return results, nil
}
