// filedrop sends single files between two machines over TCP
package main

import "filedrop/cmd"

func main() {
	cmd.Execute()
}
