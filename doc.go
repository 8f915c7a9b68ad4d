/*Package turbodrone is a ground-station for consumer WiFi quadcopters.

It drives an aircraft by emitting rate-paced control datagrams over UDP, and
receives the aircraft's live camera feed, reassembling it into displayable
frames. Three vendor radio link families are supported - referred to as A, B
and C - each with its own on-the-wire framing, handshake and video delivery
discipline. The same higher-level control abstractions (sticks, one-shot
commands, sensitivity profiles, control strategies) drive all three.

Disclaimer

This package talks to consumer drone platforms over their undocumented,
reverse-engineered wire protocols. The author(s) are not affiliated with the
manufacturers of the aircraft concerned, and are not responsible for any
damage caused either to or by an aircraft while using this software.

Features

  * Stick-based flight control with selectable response strategies
  * One-shot flight commands, eg. Takeoff(), Land(), Flip()
  * Per-family wire encoders with checksums / rolling counters
  * Per-family video reassembly into complete JPEG frames
  * A drop-oldest bounded frame queue for display consumers
  * Supervised lifecycle with link-dead detection and adapter rebuild

Concepts

Connection Types

Each family provides a 'control' link (stick positions, one-shot commands)
and a 'video' link (a proprietary datagram stream reassembled into JPEG
frames, except family C which is plain RTSP). Family B multiplexes both
links over a single UDP socket via a broker; A and C give each link its own
socket. The control pipeline always runs. Video is optional for families A
and C (Config.WithVideo); family B's transport always starts its video
request loop. When video goes silent, the supervisor rebuilds the whole
transport, control socket included.

Funcs vs. Channels

One-shot commands are funcs on StickModel; completed video frames are
delivered through a bounded, drop-oldest FrameQueue so a slow consumer never
stalls the video receive loop.
*/
package turbodrone
