// Package codec provides the versioned wire encoding shared by host and guest.
//
// Values implement Encoder and Decoder and are written with big-endian fixed
// width integers, zigzag varints and length-prefixed byte strings. Every
// Encode and Decode receives the protocol version so a type can add fields
// over time: a field introduced at version N is only written and read when
// version >= N, and decoders never fail on trailing bytes they do not know.
//
//	data, err := codec.Marshal(&input, smartmodule.APIVersion)
//	err = codec.Unmarshal(data, &input, smartmodule.APIVersion)
//
// Each nested structure is its own independently decoded buffer, so a failure
// is reported as an *errors.Error whose Path names the sub-structure.
package codec
