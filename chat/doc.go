// Package chat holds the live chat session: the state reducer and store, the
// one-shot chat id Resolver, and the Poller that merges new messages into a
// bounded newest-first list.
//
// Flow:
//   - Session.Submit resolves a video id to its active live chat id using the
//     caller-supplied API key.
//   - On success the Poller fetches immediately and then every PollInterval,
//     merging unseen messages ahead of the retained ones and keeping at most
//     MaxMessages.
//   - Switching chat id, Reset, or Close stops the running poll task before
//     anything else happens, so no tick for the previous chat can land later.
//
// All state changes go through Store.Dispatch and the pure Reduce function.
// Renderers observe snapshots with Store.Subscribe.
package chat
