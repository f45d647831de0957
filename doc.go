// Package generatepdfs is a Go client for the generatepdfs.com
// HTML/URL-to-PDF conversion API.
//
// # Connecting
//
// Use [Connect] with an API token, plus functional options as needed:
//
//	c, err := generatepdfs.Connect(os.Getenv("GENERATEPDFS_API_TOKEN"),
//		generatepdfs.WithTimeout(10*time.Second),
//		generatepdfs.WithThrottle(10, 5),
//	)
//
// # Generating Documents
//
// Submit a local HTML file, optionally with a stylesheet and images,
// or point the service at a public URL. Both return a [PDF] handle for
// the new conversion job:
//
//	pdf, err := c.GenerateFromHTML(ctx, "invoice.html",
//		generatepdfs.WithCSS("invoice.css"),
//		generatepdfs.WithImages(generatepdfs.Image{Name: "logo", Path: "logo.png"}),
//	)
//
//	pdf, err = c.GenerateFromURL(ctx, "https://example.com")
//
// # Downloading
//
// A job starts out pending and converts in the background on the
// service. Refresh the handle until it reports ready, then fetch the
// bytes or write them to disk:
//
//	pdf, err = pdf.Refresh(ctx)
//	if pdf.IsReady() {
//		data, err := pdf.Download(ctx)
//		// or: err = pdf.DownloadToFile(ctx, "invoice.pdf")
//	}
//
// Large documents can stream straight to disk with optional checksum
// verification and progress logging via [Client.DownloadPDFToFile]; see
// the [github.com/adamwoolhether/generatepdfs/download] package.
//
// # Testing
//
// The [github.com/adamwoolhether/generatepdfs/generatepdfstest] package
// runs an in-process fake of the service so application code can be
// tested without network access or a real token.
package generatepdfs
