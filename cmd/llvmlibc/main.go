package main

import "github.com/goplus/llvmlibc/cmd/llvmlibc/internal"

func main() {
	internal.Execute()
}
