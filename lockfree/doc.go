// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package lockfree provides the wait-free and lock-free primitives that the
// rest of this module builds its shared-memory coordination on:
//
//   - UniqueIndexSet: a CAS-based free-list allocator handing out dense
//     uint32 indices, used to hand out pool-allocator buckets (shm) and
//     descriptor-set slots (this package).
//   - DescriptorSet[T]: a fixed-capacity membership set with stable slot
//     indices and a GetState/UpdateState snapshot-diff API, used for the
//     per-service dynamic configuration's endpoint descriptors.
//   - SPSC[T]: a single-producer single-consumer bounded ring buffer, used
//     for the connection delivery/release queues.
//
// UniqueIndexSet and DescriptorSet keep their slots in Go slices allocated
// at construction and are process-local values. An SPSC[T] is laid over a
// byte range of a shared-memory mapping with NewSPSCAt.
package lockfree
