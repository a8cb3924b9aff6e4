// Package notifier is the outbound message queue.
//
// The dispatcher never talks to the gateway directly: it enqueues and moves on.
// Workers deliver under a token-bucket rate limit with jittered exponential
// retry. Messages for one chat always go to the same worker, so a chat sees
// its messages in the order they were enqueued.
package notifier
