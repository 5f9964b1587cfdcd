// main.go
package main

import "apartment-booking/cmd"

func main() {
	cmd.Execute()
}
