// Package exchanger routes frames between the two lines of a chained device.
package exchanger

// Every device polls its upstream and downstream lines. A received frame is
// either consumed locally, relayed untouched to the opposite line, or
// answered on the line it came from:
//
//   SCAN to nobody    relay to peer, then answer with own id (probe)
//   SCAN to me        deliver to Handler (response to my probe)
//   SCAN to others    relay to peer
//   DATA to me        deliver to Handler, reply if it asks to
//   DATA to others    relay to peer
//   anything else     drop
//
// A single unaddressed SCAN issued at one end of the chain thus enumerates
// every device. Delivery is best-effort: no retransmission, no
// acknowledgement, corrupt frames are dropped and reported to Observer.
