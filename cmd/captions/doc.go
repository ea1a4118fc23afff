// Command captions is the batch front end of the transcript pipeline.
//
// It shares the store, strategy chain and optional backends with the MCP
// server, configured from the same environment variables:
//
//	captions ingest --url https://youtu.be/ID --title "1. Intro"
//	captions extract
//	captions list --status failed
//	captions history
//	captions export --dir /srv/rag
//	captions clear --yes
package main
