// Package frame provides the L0 wire format between chained devices.
package frame

// Devices are wired in a linear chain, every device owning an upstream and a
// downstream line (e.g. a hardware UART and a software serial port).
// Frames have a fixed size, no length prefix and no delimiter, so both ends
// agree on Size out of band:
//
//   +----------+------+--------+-----------+-----------+------------+
//   | checksum | kind | status | sender id | target id |  payload   |
//   |  2 (BE)  |  1   |   1    |  IDLen    |  IDLen    | PayloadLen |
//   +----------+------+--------+-----------+-----------+------------+
//
// The checksum is CRC-16/CCITT-FALSE over the whole record with the
// checksum bytes set to zero. The all-zero identifier is reserved for
// unaddressed (broadcast) frames and never assigned to a device.
