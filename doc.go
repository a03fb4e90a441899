/*
Package xserver is the protocol side of an X server: it reads client
requests, routes them through per-extension jump tables, and writes
replies, errors and events back in the client's byte order.

The package itself only knows the wire. A Server holds the extension
registry, the core QueryExtension, ListExtensions and NoOperation requests
and the list of clients; the extensions live in their own packages (shape,
xinput, xkb) and register themselves with AddExtension.

Byte order

The server works in host byte order throughout. Each extension carries two
jump tables. Procs is used for clients that share the host's byte order;
SwappedProcs is used for the others, and each of its entries swaps the
request in place before calling the matching Procs entry. Replies are
built in host order: the handler swaps its own header fields, and the
variable part goes through a ReplyBuffer that swaps as it is written.
Events are swapped by the function registered with SetEventSwap.

Example

Registering an extension with a single request:

	srv := xserver.NewServer()
	ext, err := srv.AddExtension("EXAMPLE", 0, 0)
	if err != nil {
		log.Fatal(err)
	}
	ext.Procs.Set(0, func(c *xserver.Client, req *xserver.Request) xserver.Status {
		if st := xserver.RequestSizeMatch(req, 4); st != xserver.Success {
			return st
		}
		return xserver.SendReplySimple(c, make([]byte, xserver.GenericReplySize))
	})
	ext.SwappedProcs.Set(0, ext.Procs[0])

	l, err := net.Listen("unix", "/tmp/.X11-unix/X1")
	if err != nil {
		log.Fatal(err)
	}
	log.Fatal(srv.Serve(context.Background(), l))

Concurrency

Every connection has its own reader goroutine, but requests are run one at
a time under the server's protocol lock. Handlers may therefore touch any
server state without further locking, and must not block.
*/
package xserver
