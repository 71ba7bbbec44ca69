// Package broadcast provides multi-subscriber streams with independent
// per-subscriber cursors.
//
// Two stream kinds are provided:
//
//   - Value: holds a current value. A new subscriber first receives the
//     current value and then every later update, in update order.
//   - Stream: carries one-shot values with no replay. A subscriber only
//     receives values published after it subscribed.
//
// Every subscriber owns an unbounded FIFO queue, so a slow subscriber never
// blocks the publisher or any other subscriber. Fan-out happens while the
// stream's lock is held, which gives all subscribers the same master order.
//
//	v := broadcast.NewValue(0)
//	cur, _ := v.Subscribe()
//	defer cur.Cancel()
//
//	v.Update(func(n int) (int, error) { return n + 1, nil })
//
//	first, _ := cur.Next(ctx)  // 0
//	second, _ := cur.Next(ctx) // 1
package broadcast
