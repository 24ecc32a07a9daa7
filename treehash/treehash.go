package treehash

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	. "github.com/stevegt/goadapt"
)

// ChunkSize is the leaf chunk size mandated by the Glacier tree-hash
// protocol.  It is fixed; a digest computed with a different chunk
// size will not match the service-side checksum.
const ChunkSize = 1 << 20

// SumSize is the length in bytes of a leaf, node, or root digest.
const SumSize = sha256.Size

// ErrEmptyStream is returned when the input produced zero chunks.
// A tree hash of nothing has no defined value in the protocol, so we
// refuse it rather than inventing a sentinel digest.
var ErrEmptyStream = errors.New("empty input stream")

// frame is one node on the reduction stack: the digest of a subtree
// and the subtree's height above the leaves.
type frame struct {
	level int
	sum   []byte
}

// Stack folds leaf digests into a single root digest, holding at most
// one subtree per level -- reading the stack bottom-to-top always
// yields strictly decreasing levels, so the frame count after n
// leaves equals the number of set bits in n.  That keeps memory
// logarithmic in stream size no matter how large the input is.
type Stack struct {
	frames []frame
}

// New returns an empty reduction stack.
func New() *Stack {
	// 32 frames handles several GB without reallocating
	return &Stack{frames: make([]frame, 0, 32)}
}

// AddLeaf hashes one chunk, pushes it as a level-0 frame, and merges
// any equal-level neighbors the push created.  Chunks must arrive in
// stream order; the tree is order-dependent.
func (s *Stack) AddLeaf(chunk []byte) {
	Assert(len(chunk) <= ChunkSize, "oversized chunk: %d", len(chunk))
	s.frames = append(s.frames, frame{level: 0, sum: leafSum(chunk)})
	s.collapse(false)
}

// collapse repeatedly pops the top two frames and combines them into
// a single frame one level up.  Non-forced, it stops at the first
// level mismatch, which maintains the strictly-decreasing invariant.
// Forced, it combines regardless of level until one frame remains --
// that is only correct at end of stream.
func (s *Stack) collapse(force bool) {
	for len(s.frames) >= 2 {
		right := s.frames[len(s.frames)-1]
		left := s.frames[len(s.frames)-2]
		if left.level != right.level && !force {
			return
		}
		s.frames = s.frames[:len(s.frames)-2]
		s.frames = append(s.frames, frame{
			level: left.level + 1,
			sum:   rollup(left.sum, right.sum),
		})
	}
}

// Root force-collapses the stack and returns the single remaining
// digest.  The stack is spent afterward.  Returns ErrEmptyStream if
// no leaves were added.
func (s *Stack) Root() (sum []byte, err error) {
	if len(s.frames) == 0 {
		return nil, ErrEmptyStream
	}
	s.collapse(true)
	Assert(len(s.frames) == 1)
	return s.frames[0].sum, nil
}

// leafSum is the level-0 digest of one chunk.
func leafSum(chunk []byte) (sum []byte) {
	h := sha256.Sum256(chunk)
	return h[:]
}

// rollup combines two child digests into their parent digest.  The
// older (left) digest must come first; swapping the order changes the
// root and breaks checksum verification against the service.
func rollup(left, right []byte) (sum []byte) {
	var buf [2 * SumSize]byte
	copy(buf[:SumSize], left)
	copy(buf[SumSize:], right)
	h := sha256.Sum256(buf[:])
	return h[:]
}

// Sum reads rd to EOF in ChunkSize chunks and returns the tree-hash
// root digest.  io.ReadFull fills each chunk regardless of how the
// underlying reader buffers, so the digest depends only on the byte
// sequence.  A read failure aborts the computation; no partial digest
// is ever returned.
func Sum(rd io.Reader) (sum []byte, err error) {
	defer Return(&err)

	stack := New()
	buf := make([]byte, ChunkSize)
	for {
		n, err := io.ReadFull(rd, buf)
		if n > 0 {
			stack.AddLeaf(buf[:n])
		}
		cause := errors.Cause(err)
		if cause == io.EOF || cause == io.ErrUnexpectedEOF {
			break
		}
		Ck(err, "reading chunk")
	}
	log.Debugf("tree hash consumed stream, %d frames", len(stack.frames))

	return stack.Root()
}

// SumFile computes the tree-hash root digest of the named file.
func SumFile(filename string) (sum []byte, err error) {
	fh, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", filename)
	}
	defer fh.Close()
	return Sum(fh)
}

// Hex renders a digest as a lowercase hexadecimal string, two
// characters per byte, as the upload API expects in its checksum
// field.
func Hex(sum []byte) string {
	return hex.EncodeToString(sum)
}
