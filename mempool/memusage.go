// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"reflect"
)

// dynamicMemUsage walks v recursively, approximating the heap cost of
// everything it reaches through pointers, interfaces, slices, and maps.
// Ported from the teacher's mempool.dynamicMemUsage; this version skips
// unexported struct fields, and entryMemUsage applies it to an entry's
// MsgTx rather than the old flat pool.
func dynamicMemUsage(v reflect.Value) uintptr {
	return _dynamicMemUsage(v, 0)
}

func _dynamicMemUsage(v reflect.Value, level int) uintptr {
	t := v.Type()
	bytes := t.Size()

	switch t.Kind() {
	case reflect.Pointer, reflect.Interface:
		if !v.IsNil() {
			bytes += _dynamicMemUsage(v.Elem(), level+1)
		}
	case reflect.Array, reflect.Slice:
		for j := 0; j < v.Len(); j++ {
			vi := v.Index(j)
			k := vi.Type().Kind()
			elemB := uintptr(0)
			if t.Kind() == reflect.Array {
				if (k == reflect.Pointer || k == reflect.Interface) && !vi.IsNil() {
					elemB += _dynamicMemUsage(vi.Elem(), level+1)
				}
			} else {
				elemB += _dynamicMemUsage(vi, level+1)
			}
			if k == reflect.Uint8 {
				bytes += elemB * uintptr(v.Len())
				break
			}
			bytes += elemB
		}
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			bytes += _dynamicMemUsage(iter.Key(), level+1)
			bytes += _dynamicMemUsage(iter.Value(), level+1)
		}
	case reflect.Struct:
		for _, f := range reflect.VisibleFields(t) {
			if !f.IsExported() {
				continue
			}
			vf := v.FieldByIndex(f.Index)
			k := vf.Type().Kind()
			if (k == reflect.Pointer || k == reflect.Interface) && !vf.IsNil() {
				bytes += _dynamicMemUsage(vf.Elem(), level+1)
			} else if k == reflect.Array || k == reflect.Slice {
				bytes -= vf.Type().Size()
				bytes += _dynamicMemUsage(vf, level+1)
			}
		}
	}

	return bytes
}

// entryMemUsage approximates the heap footprint one TxEntry contributes,
// including its referenced transaction but excluding the index slots that
// point at it (those are accounted for separately by the indexes that own
// them, which is negligible compared to transaction bodies in practice).
func entryMemUsage(e *TxEntry) uintptr {
	return unsafeSizeofTxEntry + _dynamicMemUsage(reflect.ValueOf(e.Tx.MsgTx()), 0)
}

// unsafeSizeofTxEntry is a fixed estimate of the TxEntry struct's own
// footprint, computed once from its reflect.Type rather than per call.
var unsafeSizeofTxEntry = reflect.TypeOf(TxEntry{}).Size()
