// Package resumeqa answers questions about a resume owner in-process, with
// the same retrieval pipeline the resumeqa server runs.
//
// The pipeline initializes on the first question: the resume and FAQ are
// chunked, embedded and indexed, and the index is reused across restarts when
// an index location is configured.
//
//	client, _ := resumeqa.New(ctx,
//	    resumeqa.WithResumeFile("data/resume-full.json"),
//	    resumeqa.WithFAQFile("data/rag-faq.json"),
//	    resumeqa.WithIndexDir("data/index"),
//	    resumeqa.WithOwner("Jane Doe"),
//	)
//	defer client.Close()
//	answer, err := client.Ask(ctx, "Where did Jane work before Acme?")
//
// Without WithChatModel the client calls Gemini with the key from
// GOOGLE_API_KEY or GEMINI_API_KEY. Without WithEmbedder it embeds with an
// offline hashing model.
package resumeqa
