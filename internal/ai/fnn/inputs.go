package fnn

import (
	"github.com/janpfeifer/chessArena/internal/ai/material"
	"github.com/notnil/chess"
)

const (
	// NumPieceTypes per side: king, queen, rook, bishop, knight and pawn.
	NumPieceTypes = 6

	// NumPlanes of the board encoding: one 8x8 plane per piece type of the side to move, followed by
	// the ones of the opponent.
	NumPlanes = 2 * NumPieceTypes

	// InputDim is the size of the encoding of one position: the planes followed by the
	// material.Features.
	InputDim = NumPlanes*64 + material.NumFeatures
)

// Encode writes the encoding of pos into out, which must have at least InputDim elements.
//
// The encoding is from the point of view of the side to move: when black is to move the board is
// mirrored vertically, so black's pieces are encoded as if it were playing from the first rank.
func Encode(pos *chess.Position, out []float32) {
	out = out[:InputDim]
	clear(out)
	us := pos.Turn()
	b := pos.Board()
	for sq := chess.A1; sq <= chess.H8; sq++ {
		piece := b.Piece(sq)
		if piece == chess.NoPiece {
			continue
		}
		plane := int(piece.Type()) - int(chess.King)
		if piece.Color() != us {
			plane += NumPieceTypes
		}
		square := int(sq)
		if us == chess.Black {
			square ^= 56 // Flip rank.
		}
		out[plane*64+square] = 1
	}
	features := material.Features(pos)
	copy(out[NumPlanes*64:], features[:])
}
