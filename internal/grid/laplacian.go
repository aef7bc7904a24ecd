package grid

import "github.com/san-kum/biodyn/internal/dynamo"

// minRows is the smallest row chunk handed to one worker.
const minRows = 16

// Laplacian writes the five-point discrete Laplacian of src into dst.
//
// Interior cells use (up + down + left + right - 4c) / dx^2. A neighbour
// outside the lattice is replaced by the cell itself, so no material leaves
// through the boundary: edge cells see three neighbours and -3c, corner
// cells two neighbours and -2c.
func Laplacian(dst, src Field, dx float64) {
	nx, ny := src.NX, src.NY
	inv := 1 / (dx * dx)
	s, d := src.Data, dst.Data

	dynamo.ParallelFor(ny, minRows, func(start, end int) {
		for i := start; i < end; i++ {
			base := i * nx
			for j := 0; j < nx; j++ {
				c := s[base+j]
				sum, n := 0.0, 0.0
				if i > 0 {
					sum += s[base-nx+j]
					n++
				}
				if i < ny-1 {
					sum += s[base+nx+j]
					n++
				}
				if j > 0 {
					sum += s[base+j-1]
					n++
				}
				if j < nx-1 {
					sum += s[base+j+1]
					n++
				}
				d[base+j] = (sum - n*c) * inv
			}
		}
	})
}

// NeighborSum writes the sum of the four lateral neighbours of every cell
// into dst. Cells outside the lattice contribute nothing.
func NeighborSum(dst, src Field) {
	nx, ny := src.NX, src.NY
	s, d := src.Data, dst.Data

	dynamo.ParallelFor(ny, minRows, func(start, end int) {
		for i := start; i < end; i++ {
			base := i * nx
			for j := 0; j < nx; j++ {
				sum := 0.0
				if i > 0 {
					sum += s[base-nx+j]
				}
				if i < ny-1 {
					sum += s[base+nx+j]
				}
				if j > 0 {
					sum += s[base+j-1]
				}
				if j < nx-1 {
					sum += s[base+j+1]
				}
				d[base+j] = sum
			}
		}
	})
}
