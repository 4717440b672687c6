//go:build tinygo && cortexm

package arch

import (
	"device/arm"
	"runtime/volatile"
	"unsafe"
)

// ARMv8-M PMSA registers.
var (
	mpuCtrl  = (*volatile.Register32)(unsafe.Pointer(uintptr(0xE000ED94)))
	mpuRNR   = (*volatile.Register32)(unsafe.Pointer(uintptr(0xE000ED98)))
	mpuRBAR  = (*volatile.Register32)(unsafe.Pointer(uintptr(0xE000ED9C)))
	mpuRLAR  = (*volatile.Register32)(unsafe.Pointer(uintptr(0xE000EDA0)))
	mpuMAIR0 = (*volatile.Register32)(unsafe.Pointer(uintptr(0xE000EDC0)))
)

const (
	mpuCtrlEnable     = 1 << 0
	mpuCtrlPrivDefEna = 1 << 2

	rbarXN       = 1 << 0
	rbarAPRWAny  = 0b01 << 1
	rbarAPROAny  = 0b11 << 1
	rbarSHInner  = 0b11 << 3
	rlarEnable   = 1 << 0
	rlarAttrIdx1 = 1 << 1

	// MAIR0 attr0: normal memory, write-back; attr1: device nGnRE.
	mair0Value = 0xFF | 0x04<<8
)

func mpuInit() {
	mpuCtrl.Set(0)
	mpuMAIR0.Set(mair0Value)
	barrier()
}

// mpuApply programs the regions of mc. The trusted domain runs with the MPU
// off: privileged code sees the default memory map.
func mpuApply(mc *MemoryConfig) {
	mpuCtrl.Set(0)
	barrier()
	if mc == nil || mc.Trusted() {
		return
	}
	for i := 0; i < MaxMemoryRegions; i++ {
		mpuRNR.Set(uint32(i))
		if i >= mc.Len() {
			mpuRLAR.Set(0)
			continue
		}
		r := mc.Region(i)
		rbar, rlar := mpuRegionBits(r)
		mpuRBAR.Set(rbar)
		mpuRLAR.Set(rlar)
	}
	mpuCtrl.Set(mpuCtrlEnable | mpuCtrlPrivDefEna)
	barrier()
}

func mpuRegionBits(r MemoryRegion) (rbar, rlar uint32) {
	rbar = uint32(r.Start) &^ 0x1F
	rlar = uint32(r.End-1)&^0x1F | rlarEnable

	perms := r.Type.perms()
	if perms&permWrite != 0 {
		rbar |= rbarAPRWAny
	} else {
		rbar |= rbarAPROAny
	}
	if perms&permExec == 0 {
		rbar |= rbarXN
	}
	if perms&permDevice != 0 {
		rlar |= rlarAttrIdx1
	} else {
		rbar |= rbarSHInner
	}
	return rbar, rlar
}

func barrier() {
	arm.Asm("dsb")
	arm.Asm("isb")
}
