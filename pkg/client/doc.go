// Package client is a Go client for the modbot gateway API.
//
// It lets platform adapters and operator tools inject chat events and read
// back the bot's outbound messages, the moderation queue, karma counts and
// the audit log.
//
//	c, err := client.New("http://localhost:8090")
//	if err != nil {
//		log.Fatal(err)
//	}
//	items, err := c.PostEvent(ctx, client.Event{AuthorID: "42", AuthorName: "alice", Content: "report"})
package client
