// Package growi provides types, interfaces, and helpers for working with the
// GROWI wiki HTTP API.
//
// # Overview
//
// The growi package defines the domain types (PageRef, PageDescriptor, Page,
// AttachmentReference, Tag) and the interfaces for the resource clients
// (PagesClient, AttachmentsClient, TagsClient). A concrete implementation is
// provided by the growiclient package, which wires configuration, transport,
// and credentials. Most consumers import growiclient to construct a client and
// then use the interfaces exposed here.
//
// Getting a client
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/growi/pkg/growi"
//	  "github.com/fivetwenty-io/growi/pkg/growiclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//	  cli, err := growiclient.New(ctx, &growi.Config{
//	    BaseURL:     "https://wiki.example.com",
//	    AccessToken: "token",
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  page, err := cli.Pages().Update(ctx, &growi.MutationRequest{
//	    Ref:  growi.ByPath("/team/notes"),
//	    Body: "# Notes",
//	  })
//	  if err != nil { log.Fatal(err) }
//	  _ = page
//	}
//
// # Page references and revisions
//
// Pages are addressed with a PageRef built by ByPath or ByID; exactly one of
// the two must be set. Update and Rename always resolve the page first and
// send the revision id they just read, so the server rejects the write if
// someone else changed the page in between. The client never retries such a
// conflict; IsConflict identifies it and the caller decides what to do.
//
// # Errors
//
// Every failure is an *Error whose Kind is one of a closed set (NotFound,
// AlreadyExists, BadRequest, Unauthorized, OperationFailed, ServerError,
// Unreachable, InvalidArgument, Unknown). The raw status code and body are
// kept for diagnostics. Helpers such as IsNotFound and KindOf branch on them.
package growi
