// posecam captures camera frames or image files, sends them to a pose
// detection service and shows the detected landmarks.
package main

func main() {
	Execute()
}
