package main

import "encoding/binary"

// On-disk layout (spec.md section 3/6): block 0 superblock, then block
// bitmap, inode bitmap, inode table, data blocks, all little-endian.

const fsMagic = 0x53465247 // "GRFS" read as a little-endian u32

const (
	inodeFree      = 0
	inodeDirectory = 1
	inodeData      = 2
)

const (
	NDIRECT   = 12
	ninodeRec = 64 // on-disk inode record size in bytes
)

// dinode is the on-disk inode record (spec.md section 3): type, size,
// link count, direct pointers, one indirect pointer.
type dinode struct {
	Type   uint16
	Nlink  uint16
	Size   uint32
	Addrs  [NDIRECT]uint32
	Indir  uint32
}

func (d *dinode) marshal() []byte {
	b := make([]byte, ninodeRec)
	binary.LittleEndian.PutUint16(b[0:2], d.Type)
	binary.LittleEndian.PutUint16(b[2:4], d.Nlink)
	binary.LittleEndian.PutUint32(b[4:8], d.Size)
	for i, a := range d.Addrs {
		binary.LittleEndian.PutUint32(b[8+i*4:12+i*4], a)
	}
	binary.LittleEndian.PutUint32(b[8+NDIRECT*4:12+NDIRECT*4], d.Indir)
	return b
}

func (d *dinode) unmarshal(b []byte) {
	d.Type = binary.LittleEndian.Uint16(b[0:2])
	d.Nlink = binary.LittleEndian.Uint16(b[2:4])
	d.Size = binary.LittleEndian.Uint32(b[4:8])
	for i := range d.Addrs {
		d.Addrs[i] = binary.LittleEndian.Uint32(b[8+i*4 : 12+i*4])
	}
	d.Indir = binary.LittleEndian.Uint32(b[8+NDIRECT*4 : 12+NDIRECT*4])
}

// superblock mirrors the fixed fields spec.md section 3 names: magic,
// total blocks, inode count, and the bitmap locations everything else
// is computed from.
type superblock struct {
	Magic       uint32
	TotalBlocks uint32
	NInodes     uint32
	BmapStart   uint32
	ImapStart   uint32
	InodeStart  uint32
	DataStart   uint32
}

var sb superblock

func (s *superblock) marshal() []byte {
	b := make([]byte, BSIZE)
	binary.LittleEndian.PutUint32(b[0:4], s.Magic)
	binary.LittleEndian.PutUint32(b[4:8], s.TotalBlocks)
	binary.LittleEndian.PutUint32(b[8:12], s.NInodes)
	binary.LittleEndian.PutUint32(b[12:16], s.BmapStart)
	binary.LittleEndian.PutUint32(b[16:20], s.ImapStart)
	binary.LittleEndian.PutUint32(b[20:24], s.InodeStart)
	binary.LittleEndian.PutUint32(b[24:28], s.DataStart)
	return b
}

func (s *superblock) unmarshal(b []byte) {
	s.Magic = binary.LittleEndian.Uint32(b[0:4])
	s.TotalBlocks = binary.LittleEndian.Uint32(b[4:8])
	s.NInodes = binary.LittleEndian.Uint32(b[8:12])
	s.BmapStart = binary.LittleEndian.Uint32(b[12:16])
	s.ImapStart = binary.LittleEndian.Uint32(b[16:20])
	s.InodeStart = binary.LittleEndian.Uint32(b[20:24])
	s.DataStart = binary.LittleEndian.Uint32(b[24:28])
}

const defaultTotalBlocks = 8192
const defaultNInodes = 512

// prepareRoot is syscall 40: it writes a fresh superblock, zeroes the
// block and inode bitmaps, zeroes the inode table, then creates the
// root directory inode (inum 1) with "." and ".." entries pointing at
// itself. Ordering follows original_source's kernel/src/init/fs.rs and
// fs/fs.rs::get_sb, used here only to confirm boot-time sequencing --
// the byte layout itself is spec.md's.
func prepareRoot() {
	sb.Magic = fsMagic
	sb.TotalBlocks = defaultTotalBlocks
	sb.NInodes = defaultNInodes
	sb.BmapStart = 1
	bmapBlocks := uint32(divCeil(int(sb.TotalBlocks), 8*BSIZE))
	sb.ImapStart = sb.BmapStart + bmapBlocks
	imapBlocks := uint32(divCeil(int(sb.NInodes), 8*BSIZE))
	sb.InodeStart = sb.ImapStart + imapBlocks
	inodeBlocks := uint32(divCeil(int(sb.NInodes)*ninodeRec, BSIZE))
	sb.DataStart = sb.InodeStart + inodeBlocks

	b := getBlock(0, 0)
	copy(b.data[:], sb.marshal())
	writeBlock(b)
	putBlock(b)

	for blk := sb.BmapStart; blk < sb.ImapStart; blk++ {
		zeroBlock(0, int(blk))
	}
	for blk := sb.ImapStart; blk < sb.InodeStart; blk++ {
		zeroBlock(0, int(blk))
	}
	for blk := sb.InodeStart; blk < sb.DataStart; blk++ {
		zeroBlock(0, int(blk))
	}

	markInodeUsed(1)
	root := dinode{Type: inodeDirectory, Nlink: 1}
	writeDinode(1, &root)

	var selfEntry, parentEntry [64]byte
	encodeDentry(selfEntry[:], 1, ".")
	encodeDentry(parentEntry[:], 1, "..")
	buf := append(append([]byte{}, selfEntry[:]...), parentEntry[:]...)

	ip := &inode{inum: 1}
	readDinode(1, &ip.disk)
	inodeWriteData(ip, 0, buf, len(buf))
	writeDinode(1, &ip.disk)

	rootInum = 1
}

func zeroBlock(d, blkno int) {
	b := getBlock(d, blkno)
	for i := range b.data {
		b.data[i] = 0
	}
	writeBlock(b)
	putBlock(b)
}

func divCeil(a, b int) int {
	return (a + b - 1) / b
}

func readDinode(inum int, d *dinode) {
	blk, off := inodeDiskLocation(inum)
	b := getBlock(0, blk)
	d.unmarshal(b.data[off : off+ninodeRec])
	putBlock(b)
}

func writeDinode(inum int, d *dinode) {
	blk, off := inodeDiskLocation(inum)
	b := getBlock(0, blk)
	copy(b.data[off:off+ninodeRec], d.marshal())
	writeBlock(b)
	putBlock(b)
}

func inodeDiskLocation(inum int) (blk int, off int) {
	perBlock := BSIZE / ninodeRec
	blk = int(sb.InodeStart) + (inum-1)/perBlock
	off = ((inum - 1) % perBlock) * ninodeRec
	return
}
