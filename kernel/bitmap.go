package main

// bitmapFindFree scans bits for the lowest clear bit and returns its
// index, or (-1, false) if every bit is set. Pure []byte arithmetic,
// no buffer-cache or locking involvement, so it is exercised directly
// by bitmap_test.go on the host (spec.md section 4.8).
func bitmapFindFree(bits []byte) (int, bool) {
	for byteIdx, b := range bits {
		if b == 0xff {
			continue
		}
		for bit := 0; bit < 8; bit++ {
			if b&(1<<uint(bit)) == 0 {
				return byteIdx*8 + bit, true
			}
		}
	}
	return -1, false
}

func bitmapSet(bits []byte, idx int) {
	bits[idx/8] |= 1 << uint(idx%8)
}

func bitmapClear(bits []byte, idx int) {
	bits[idx/8] &^= 1 << uint(idx%8)
}

func bitmapIsSet(bits []byte, idx int) bool {
	return bits[idx/8]&(1<<uint(idx%8)) != 0
}

// bitmapBlockOf returns the (blkno, bitOffsetWithinBlock) that bit
// index idx of the bitmap starting at block base lives at, spread
// across consecutive blocks of 8*BSIZE bits each. Used for both the
// block bitmap (base sb.BmapStart) and the inode bitmap (sb.ImapStart).
func bitmapBlockOf(base uint32, idx int) (blk int, bitOff int) {
	bitsPerBlock := 8 * BSIZE
	blk = int(base) + idx/bitsPerBlock
	bitOff = idx % bitsPerBlock
	return
}

// allocBlock scans the block bitmap the same way allocInode scans the
// inode bitmap: one bitmap block at a time, not one bit at a time, so
// the loop bound is a block count rather than a bit count. Finds the
// lowest clear bit, sets it, zero-fills the backing data block through
// the cache, and returns the absolute block number, or -1 on exhaustion
// (spec.md section 4.8).
func allocBlock() int {
	blocksPerBlock := 8 * BSIZE
	bmapBlocks := int(sb.ImapStart - sb.BmapStart)
	for blkIdx := 0; blkIdx < bmapBlocks; blkIdx++ {
		b := getBlock(0, int(sb.BmapStart)+blkIdx)
		idx, ok := bitmapFindFree(b.data[:])
		if ok {
			bitmapSet(b.data[:], idx)
			writeBlock(b)
			putBlock(b)
			blkno := int(sb.DataStart) + blkIdx*blocksPerBlock + idx
			zeroBlock(0, blkno)
			return blkno
		}
		putBlock(b)
	}
	return -1
}

func freeBlock(blkno int) {
	rel := blkno - int(sb.DataStart)
	blk, bitOff := bitmapBlockOf(sb.BmapStart, rel)
	b := getBlock(0, blk)
	bitmapClear(b.data[:], bitOff)
	writeBlock(b)
	putBlock(b)
}

// allocInode scans the inode bitmap the same way allocBlock scans the
// block bitmap, then resets the inode record to type Free so
// inode_create can claim it.
func allocInode() int {
	inodesPerBlock := 8 * BSIZE
	imapBlocks := int(sb.InodeStart - sb.ImapStart)
	for blkIdx := 0; blkIdx < imapBlocks; blkIdx++ {
		b := getBlock(0, int(sb.ImapStart)+blkIdx)
		idx, ok := bitmapFindFree(b.data[:])
		if ok {
			bitmapSet(b.data[:], idx)
			writeBlock(b)
			putBlock(b)
			inum := blkIdx*inodesPerBlock + idx + 1
			var d dinode
			d.Type = inodeFree
			writeDinode(inum, &d)
			return inum
		}
		putBlock(b)
	}
	return -1
}

func freeInode(inum int) {
	idx := inum - 1
	blk, bitOff := bitmapBlockOf(sb.ImapStart, idx)
	b := getBlock(0, blk)
	bitmapClear(b.data[:], bitOff)
	writeBlock(b)
	putBlock(b)
}

func markInodeUsed(inum int) {
	idx := inum - 1
	blk, bitOff := bitmapBlockOf(sb.ImapStart, idx)
	b := getBlock(0, blk)
	bitmapSet(b.data[:], bitOff)
	writeBlock(b)
	putBlock(b)
}

func showBitmap(which int) {
	if which == 0 {
		kinfo("block bitmap: start=%d\n", int(sb.BmapStart))
	} else {
		kinfo("inode bitmap: start=%d\n", int(sb.ImapStart))
	}
}
