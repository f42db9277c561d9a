package transport

// defaultChunkSize fits one notification in the default ATT MTU (23 bytes
// minus the 3 byte header).
const defaultChunkSize = 20

// frameLine terminates message the way a serial println does and splits it
// into chunks of at most size bytes.
func frameLine(message string, size int) [][]byte {
	if size <= 0 {
		size = defaultChunkSize
	}
	data := []byte(message + "\r\n")

	chunks := make([][]byte, 0, (len(data)+size-1)/size)
	for len(data) > 0 {
		n := min(size, len(data))
		chunks = append(chunks, data[:n])
		data = data[n:]
	}
	return chunks
}
