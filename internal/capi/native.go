//go:build cgo && lightgbm

package capi

/*
#cgo LDFLAGS: -l_lightgbm -lstdc++
#cgo CFLAGS: -I/usr/local/include

#include <stdlib.h>
#include <stdint.h>
#include <LightGBM/c_api.h>

static char** makeCharArray(int size) {
    return (char**)calloc(size > 0 ? size : 1, sizeof(char*));
}

static void setArrayString(char** array, int index, char* str) {
    array[index] = str;
}

static char* getArrayString(char** array, int index) {
    return array[index];
}

static void freeCharArray(char** array, int size) {
    for (int i = 0; i < size; i++) {
        free(array[i]);
    }
    free(array);
}
*/
import "C"

import (
	"unsafe"
)

// Default returns the cgo binding to the linked LightGBM library.
func Default() API { return native{} }

type native struct{}

func (native) LastError() string {
	return C.GoString(C.LGBM_GetLastError())
}

func (native) DatasetCreateFromMat(data []float64, nrow, ncol int32, params string) (DatasetHandle, int) {
	var handle C.DatasetHandle

	cParams := C.CString(params)
	defer C.free(unsafe.Pointer(cParams))

	ret := C.LGBM_DatasetCreateFromMat(
		unsafe.Pointer(&data[0]),
		C.C_API_DTYPE_FLOAT64,
		C.int32_t(nrow),
		C.int32_t(ncol),
		C.int(1), // is_row_major
		cParams,
		nil,
		&handle,
	)
	return DatasetHandle(handle), int(ret)
}

func (native) DatasetCreateFromFile(filename, params string) (DatasetHandle, int) {
	var handle C.DatasetHandle

	cFilename := C.CString(filename)
	defer C.free(unsafe.Pointer(cFilename))
	cParams := C.CString(params)
	defer C.free(unsafe.Pointer(cParams))

	ret := C.LGBM_DatasetCreateFromFile(cFilename, cParams, nil, &handle)
	return DatasetHandle(handle), int(ret)
}

func (native) DatasetSetFieldFloat32(h DatasetHandle, field string, data []float32) int {
	cField := C.CString(field)
	defer C.free(unsafe.Pointer(cField))

	var ptr unsafe.Pointer
	if len(data) > 0 {
		ptr = unsafe.Pointer(&data[0])
	}
	return int(C.LGBM_DatasetSetField(C.DatasetHandle(h), cField, ptr, C.int(len(data)), C.C_API_DTYPE_FLOAT32))
}

func (native) DatasetSetFieldFloat64(h DatasetHandle, field string, data []float64) int {
	cField := C.CString(field)
	defer C.free(unsafe.Pointer(cField))

	var ptr unsafe.Pointer
	if len(data) > 0 {
		ptr = unsafe.Pointer(&data[0])
	}
	return int(C.LGBM_DatasetSetField(C.DatasetHandle(h), cField, ptr, C.int(len(data)), C.C_API_DTYPE_FLOAT64))
}

func (native) DatasetSetFeatureNames(h DatasetHandle, names []string) int {
	n := C.int(len(names))
	arr := C.makeCharArray(n)
	defer C.freeCharArray(arr, n)

	for i, name := range names {
		C.setArrayString(arr, C.int(i), C.CString(name))
	}
	return int(C.LGBM_DatasetSetFeatureNames(C.DatasetHandle(h), (**C.char)(unsafe.Pointer(arr)), n))
}

func (native) DatasetGetNumData(h DatasetHandle) (int32, int) {
	var out C.int
	ret := C.LGBM_DatasetGetNumData(C.DatasetHandle(h), &out)
	return int32(out), int(ret)
}

func (native) DatasetGetNumFeature(h DatasetHandle) (int32, int) {
	var out C.int
	ret := C.LGBM_DatasetGetNumFeature(C.DatasetHandle(h), &out)
	return int32(out), int(ret)
}

func (native) DatasetFree(h DatasetHandle) int {
	return int(C.LGBM_DatasetFree(C.DatasetHandle(h)))
}

func (native) BoosterCreate(train DatasetHandle, params string) (BoosterHandle, int) {
	var handle C.BoosterHandle

	cParams := C.CString(params)
	defer C.free(unsafe.Pointer(cParams))

	ret := C.LGBM_BoosterCreate(C.DatasetHandle(train), cParams, &handle)
	return BoosterHandle(handle), int(ret)
}

func (native) BoosterCreateFromModelfile(filename string) (BoosterHandle, int32, int) {
	var handle C.BoosterHandle
	var outNumIterations C.int

	cFilename := C.CString(filename)
	defer C.free(unsafe.Pointer(cFilename))

	ret := C.LGBM_BoosterCreateFromModelfile(cFilename, &outNumIterations, &handle)
	return BoosterHandle(handle), int32(outNumIterations), int(ret)
}

func (native) BoosterLoadModelFromString(model string) (BoosterHandle, int32, int) {
	var handle C.BoosterHandle
	var outNumIterations C.int

	cModel := C.CString(model)
	defer C.free(unsafe.Pointer(cModel))

	ret := C.LGBM_BoosterLoadModelFromString(cModel, &outNumIterations, &handle)
	return BoosterHandle(handle), int32(outNumIterations), int(ret)
}

func (native) BoosterUpdateOneIter(h BoosterHandle) (bool, int) {
	var isFinished C.int
	ret := C.LGBM_BoosterUpdateOneIter(C.BoosterHandle(h), &isFinished)
	return isFinished == 1, int(ret)
}

func (native) BoosterGetCurrentIteration(h BoosterHandle) (int32, int) {
	var out C.int
	ret := C.LGBM_BoosterGetCurrentIteration(C.BoosterHandle(h), &out)
	return int32(out), int(ret)
}

func (native) BoosterGetNumClasses(h BoosterHandle) (int32, int) {
	var out C.int
	ret := C.LGBM_BoosterGetNumClasses(C.BoosterHandle(h), &out)
	return int32(out), int(ret)
}

func (native) BoosterGetNumFeature(h BoosterHandle) (int32, int) {
	var out C.int
	ret := C.LGBM_BoosterGetNumFeature(C.BoosterHandle(h), &out)
	return int32(out), int(ret)
}

func (native) BoosterGetFeatureNames(h BoosterHandle, numNames int32, bufferLen int) ([]string, int32, int, int) {
	n := C.int(numNames)
	arr := C.makeCharArray(n)
	defer C.freeCharArray(arr, n)

	for i := 0; i < int(numNames); i++ {
		C.setArrayString(arr, C.int(i), (*C.char)(C.calloc(C.size_t(bufferLen), 1)))
	}

	var outLen C.int
	var outBufferLen C.size_t
	ret := C.LGBM_BoosterGetFeatureNames(
		C.BoosterHandle(h),
		n,
		&outLen,
		C.size_t(bufferLen),
		&outBufferLen,
		arr,
	)
	if ret != 0 {
		return nil, 0, 0, int(ret)
	}

	count := int(outLen)
	if count > int(numNames) {
		count = int(numNames)
	}
	names := make([]string, count)
	for i := 0; i < count; i++ {
		names[i] = C.GoString(C.getArrayString(arr, C.int(i)))
	}
	return names, int32(outLen), int(outBufferLen), int(ret)
}

func (native) BoosterFeatureImportance(h BoosterHandle, numIteration, importanceType int32, out []float64) int {
	var ptr *C.double
	if len(out) > 0 {
		ptr = (*C.double)(unsafe.Pointer(&out[0]))
	}
	return int(C.LGBM_BoosterFeatureImportance(C.BoosterHandle(h), C.int(numIteration), C.int(importanceType), ptr))
}

func (native) BoosterCalcNumPredict(h BoosterHandle, numRow, predictType, startIteration, numIteration int32) (int64, int) {
	var outLen C.int64_t
	ret := C.LGBM_BoosterCalcNumPredict(
		C.BoosterHandle(h),
		C.int(numRow),
		C.int(predictType),
		C.int(startIteration),
		C.int(numIteration),
		&outLen,
	)
	return int64(outLen), int(ret)
}

func (native) BoosterPredictForMat(h BoosterHandle, data []float64, nrow, ncol int32, predictType, startIteration, numIteration int32, params string, out []float64) (int64, int) {
	var outLen C.int64_t

	cParams := C.CString(params)
	defer C.free(unsafe.Pointer(cParams))

	ret := C.LGBM_BoosterPredictForMat(
		C.BoosterHandle(h),
		unsafe.Pointer(&data[0]),
		C.C_API_DTYPE_FLOAT64,
		C.int32_t(nrow),
		C.int32_t(ncol),
		C.int(1), // is_row_major
		C.int(predictType),
		C.int(startIteration),
		C.int(numIteration),
		cParams,
		&outLen,
		(*C.double)(unsafe.Pointer(&out[0])),
	)
	return int64(outLen), int(ret)
}

func (native) BoosterSaveModel(h BoosterHandle, startIteration, numIteration, importanceType int32, filename string) int {
	cFilename := C.CString(filename)
	defer C.free(unsafe.Pointer(cFilename))

	return int(C.LGBM_BoosterSaveModel(
		C.BoosterHandle(h),
		C.int(startIteration),
		C.int(numIteration),
		C.int(importanceType),
		cFilename,
	))
}

func (native) BoosterSaveModelToString(h BoosterHandle, startIteration, numIteration, importanceType int32, bufferLen int64) (string, int64, int) {
	buf := (*C.char)(C.calloc(C.size_t(max(bufferLen, 1)), 1))
	defer C.free(unsafe.Pointer(buf))

	var outLen C.int64_t
	ret := C.LGBM_BoosterSaveModelToString(
		C.BoosterHandle(h),
		C.int(startIteration),
		C.int(numIteration),
		C.int(importanceType),
		C.int64_t(bufferLen),
		&outLen,
		buf,
	)
	return copyOut(buf, int64(outLen), bufferLen), int64(outLen), int(ret)
}

func (native) BoosterDumpModel(h BoosterHandle, startIteration, numIteration, importanceType int32, bufferLen int64) (string, int64, int) {
	buf := (*C.char)(C.calloc(C.size_t(max(bufferLen, 1)), 1))
	defer C.free(unsafe.Pointer(buf))

	var outLen C.int64_t
	ret := C.LGBM_BoosterDumpModel(
		C.BoosterHandle(h),
		C.int(startIteration),
		C.int(numIteration),
		C.int(importanceType),
		C.int64_t(bufferLen),
		&outLen,
		buf,
	)
	return copyOut(buf, int64(outLen), bufferLen), int64(outLen), int(ret)
}

// copyOut reads a NUL-terminated buffer only when the native side reported
// that the whole text fit.
func copyOut(buf *C.char, outLen, bufferLen int64) string {
	if outLen <= 0 || outLen > bufferLen {
		return ""
	}
	return C.GoStringN(buf, C.int(outLen-1))
}

func (native) BoosterFree(h BoosterHandle) int {
	return int(C.LGBM_BoosterFree(C.BoosterHandle(h)))
}
