// Package binp provides the binary sink (Printer) and binary source
// (Reader) builders used to frame SSH-2 packets and SFTP wire messages:
// big-endian 8/32/64-bit integers, length-prefixed strings, and raw
// byte runs. Length fields that can't be known until a message body is
// complete are handled by reserving their bytes with Skip and patching
// them in place once Out exposes the buffer.
package binp
