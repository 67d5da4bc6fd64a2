// Package convert turns engine texture mips into the texel layouts a
// device stores.
//
// Palettized mips go through a 256-entry lookup table built once per
// conversion; direct-color lightmaps (7 bits per channel, BGRA byte order)
// are repacked channel by channel. Textures smaller than the device minimum
// are upscaled by whole-texel replication: horizontally while converting,
// then vertically by duplicating rows into the part of the destination
// buffer that follows the first pass.
//
// All channel reductions truncate. No function here mutates its inputs.
package convert
